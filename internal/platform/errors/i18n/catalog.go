// Package i18n renders localized messages for error codes.
//
// The core never formats user-facing strings itself: error codes plus
// metadata cross the boundary, and this package turns them into text for a
// presentation layer.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from the errors package
// to avoid an import cycle).
type Code = string

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Catalog{}
	matcher    language.Matcher
	matcherTag = map[language.Tag]string{}
)

func init() {
	RegisterCatalog(BaseLocale, messagesEnUS)
	RegisterCatalog("pt-BR", messagesPtBR)
}

// RegisterCatalog installs or replaces the catalog for a locale.
func RegisterCatalog(locale string, messages map[Code]string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[locale] = &Catalog{locale: locale, messages: messages}

	tags := make([]language.Tag, 0, len(registry))
	matcherTag = make(map[language.Tag]string, len(registry))
	// Base locale first so it wins as the matcher fallback.
	if _, ok := registry[BaseLocale]; ok {
		tag := language.Make(BaseLocale)
		tags = append(tags, tag)
		matcherTag[tag] = BaseLocale
	}
	for name := range registry {
		if name == BaseLocale {
			continue
		}
		tag := language.Make(name)
		tags = append(tags, tag)
		matcherTag[tag] = name
	}
	matcher = language.NewMatcher(tags)
}

// GetCatalog returns the catalog best matching the requested locale.
// Unknown or empty locales fall back to en-US.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	if c, ok := registry[requested]; ok {
		return c
	}
	tag, _ := language.MatchStrings(matcher, requested)
	if name, ok := matcherTag[tag]; ok {
		if c, ok := registry[name]; ok {
			return c
		}
	}
	return registry[BaseLocale]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found. Templates are
// always executed even with nil metadata so variables render as empty rather
// than failing.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}
