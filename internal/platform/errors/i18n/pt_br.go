package i18n

var messagesPtBR = map[Code]string{
	CodeTimeRangeInvalid:         "O intervalo de tempo é inválido: o início deve ser antes do fim.",
	CodeTimeRangeInvalidDay:      "O dia da semana não é válido.",
	CodeSlotEmptyFieldID:         "Um campo é obrigatório para registrar um horário.",
	CodeSlotConflict:             "O horário sobrepõe um horário existente deste campo.",
	CodeSlotNotFound:             "O horário não foi encontrado.",
	CodeBookingEmptyFieldID:      "Um campo é obrigatório para solicitar uma reserva.",
	CodeBookingEmptyRequesterID:  "Um solicitante é obrigatório para uma reserva.",
	CodeBookingDateRequired:      "Uma data é obrigatória para uma reserva.",
	CodeBookingDateDayMismatch:   "A data da reserva não cai em {{.Day}}.",
	CodeBookingConflict:          "O horário solicitado conflita com uma reserva existente{{if .FieldID}} no campo {{.FieldID}}{{end}}.",
	CodeBookingNoAvailability:    "O campo não tem disponibilidade para o horário solicitado.",
	CodeBookingInvalidTransition: "A reserva não pode mudar de {{.From}} para {{.To}}.",
	CodeMatchEmptyBookingID:      "Uma reserva é obrigatória para organizar uma partida.",
	CodeMatchEmptyOrganizerID:    "Um organizador é obrigatório para uma partida.",
	CodeMatchEmptyUserID:         "Um jogador é obrigatório para entrar ou sair de uma partida.",
	CodeMatchInvalidSport:        "O esporte {{.Sport}} não é suportado.",
	CodeMatchInvalidTransition:   "A partida não pode mudar de {{.From}} para {{.To}}.",
	CodeMatchBookingNotApproved:  "A reserva precisa estar aprovada antes de organizar uma partida.",
	CodeMatchFull:                "A partida já tem todos os {{.RequiredPlayers}} jogadores necessários.",
	CodeMatchRosterClosed:        "A lista de jogadores da partida está fechada.",
	CodeInviteGrantInvalid:       "O convite não é válido.",
	CodeInviteGrantExpired:       "O convite expirou.",
	CodeInviteGrantMismatch:      "O convite foi emitido para outro {{.Field}}.",
	CodeActorNotManager:          "Apenas o gestor do campo pode executar esta ação.",
	CodeNotFound:                 "O registro solicitado não foi encontrado.",
	CodePersistence:              "A alteração foi aplicada mas não pôde ser salva. Tente novamente.",
}
