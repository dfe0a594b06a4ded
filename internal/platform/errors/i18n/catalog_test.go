package i18n

import (
	"strings"
	"testing"
)

func TestGetCatalogFallsBackToBaseLocale(t *testing.T) {
	t.Parallel()

	c := GetCatalog("fr-FR")
	if c.Locale() != BaseLocale {
		t.Fatalf("expected fallback to %s, got %s", BaseLocale, c.Locale())
	}
	if c := GetCatalog(""); c.Locale() != BaseLocale {
		t.Fatalf("expected empty locale to resolve to %s, got %s", BaseLocale, c.Locale())
	}
}

func TestGetCatalogMatchesRegionVariants(t *testing.T) {
	t.Parallel()

	c := GetCatalog("pt")
	if c.Locale() != "pt-BR" {
		t.Fatalf("expected pt to match pt-BR, got %s", c.Locale())
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	msg := c.Format(CodeBookingInvalidTransition, map[string]string{
		"From": "REJECTED",
		"To":   "APPROVED",
	})
	if !strings.Contains(msg, "REJECTED") || !strings.Contains(msg, "APPROVED") {
		t.Fatalf("expected rendered transition states, got %q", msg)
	}
}

func TestFormatWithoutMetadata(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	msg := c.Format(CodeBookingConflict, nil)
	if strings.Contains(msg, "{{") {
		t.Fatalf("expected executed template, got %q", msg)
	}
}

func TestFormatUnknownCodeReturnsCode(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	if got := c.Format("NO_SUCH_CODE", nil); got != "NO_SUCH_CODE" {
		t.Fatalf("expected code fallback, got %q", got)
	}
}

func TestEveryBaseMessageHasTranslation(t *testing.T) {
	t.Parallel()

	for code := range messagesEnUS {
		if _, ok := messagesPtBR[code]; !ok {
			t.Errorf("missing pt-BR translation for %s", code)
		}
	}
}
