// Package invite issues and verifies signed join grants for matches. A
// grant lets an organizer invite a specific user to a specific match
// without the core trusting the transport that carried the invite.
package invite

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
)

// joinGrantEnv holds raw env values before post-parse validation.
type joinGrantEnv struct {
	Issuer     string `env:"FIELDBOOK_JOIN_GRANT_ISSUER"`
	Audience   string `env:"FIELDBOOK_JOIN_GRANT_AUDIENCE"`
	PublicKey  string `env:"FIELDBOOK_JOIN_GRANT_PUBLIC_KEY"`
	PrivateKey string `env:"FIELDBOOK_JOIN_GRANT_PRIVATE_KEY"`
}

// VerifierConfig defines how join grants are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// SignerConfig defines how join grants are minted.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Expectation defines the expected identity for a join grant.
type Expectation struct {
	MatchID string
	UserID  string
}

// Claims captures validated join grant claims.
type Claims struct {
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	NotBefore time.Time
	IssuedAt  time.Time
	JWTID     string
	MatchID   string
	UserID    string
}

// joinGrantClaims is the internal claims type used for JWT parsing.
type joinGrantClaims struct {
	jwt.RegisteredClaims
	MatchID string `json:"match_id"`
	UserID  string `json:"user_id"`
}

// DefaultTTL bounds how long a minted grant stays valid.
const DefaultTTL = 72 * time.Hour

// LoadVerifierConfigFromEnv reads join grant verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	var raw joinGrantEnv
	if err := env.Parse(&raw); err != nil {
		return VerifierConfig{}, fmt.Errorf("parse join grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return VerifierConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_ISSUER is required")
	}
	if audience == "" {
		return VerifierConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_AUDIENCE is required")
	}
	if publicKey == "" {
		return VerifierConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode join grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("join grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// LoadSignerConfigFromEnv reads join grant signing configuration.
func LoadSignerConfigFromEnv(now func() time.Time) (SignerConfig, error) {
	var raw joinGrantEnv
	if err := env.Parse(&raw); err != nil {
		return SignerConfig{}, fmt.Errorf("parse join grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return SignerConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_ISSUER is required")
	}
	if audience == "" {
		return SignerConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_AUDIENCE is required")
	}
	if privateKey == "" {
		return SignerConfig{}, fmt.Errorf("FIELDBOOK_JOIN_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return SignerConfig{}, fmt.Errorf("decode join grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return SignerConfig{}, fmt.Errorf("join grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return SignerConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      DefaultTTL,
		Now:      now,
	}, nil
}

// Mint signs a join grant for one user on one match.
func Mint(matchID, userID string, cfg SignerConfig) (string, error) {
	matchID = strings.TrimSpace(matchID)
	userID = strings.TrimSpace(userID)
	if matchID == "" {
		return "", apperrors.New(apperrors.CodeInviteGrantInvalid, "match id is required")
	}
	if userID == "" {
		return "", apperrors.New(apperrors.CodeInviteGrantInvalid, "user id is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("join grant signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	jwtID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	now := cfg.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, joinGrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jwtID,
		},
		MatchID: matchID,
		UserID:  userID,
	})
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign join grant: %w", err)
	}
	return signed, nil
}

// Validate verifies a join grant token and validates expected claims.
func Validate(grant string, expected Expectation, cfg VerifierConfig) (Claims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return Claims{}, apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("join grant verifier is not configured")
	}

	var parsed joinGrantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeInviteGrantMismatch,
			"join grant issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeInviteGrantMismatch,
			"join grant audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}

	if parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant jti is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeInviteGrantExpired, "join grant is expired")
	}
	if parsed.NotBefore != nil {
		nbf := parsed.NotBefore.Time.UTC()
		if now.Before(nbf) {
			return Claims{}, apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant not active yet")
		}
	}

	if strings.TrimSpace(parsed.MatchID) == "" || parsed.MatchID != expected.MatchID {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeInviteGrantMismatch,
			"join grant match mismatch",
			map[string]string{"Field": "match_id"},
		)
	}
	if strings.TrimSpace(parsed.UserID) == "" || parsed.UserID != expected.UserID {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeInviteGrantMismatch,
			"join grant user mismatch",
			map[string]string{"Field": "user_id"},
		)
	}

	claims := Claims{
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
		MatchID:   parsed.MatchID,
		UserID:    parsed.UserID,
	}
	if parsed.NotBefore != nil {
		claims.NotBefore = parsed.NotBefore.Time.UTC()
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeInviteGrantInvalid, "join grant is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
