package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bft-labs/appshell/pkg/settings"
)

// FallbackLanguage is used when neither the settings nor the system locale
// name a known catalog.
const FallbackLanguage = "en_US"

// LanguagePath is the settings path holding the selected language id.
const LanguagePath = "general.language"

// Format controls how translated strings are cased.
type Format string

const (
	FormatDefault    Format = "default"
	FormatUppercase  Format = "uppercase"
	FormatLowercase  Format = "lowercase"
	FormatCapitalize Format = "capitalize"
)

// ErrUnformattable is returned when a non-default format is applied to a
// list translation.
var ErrUnformattable = errors.New("ui: list translations cannot be formatted")

// Translator resolves translation ids in the active language.
type Translator struct {
	catalogs Catalogs
	cache    *settings.Cache
	locale   func() string

	// MissingAsText renders unknown ids as "translation missing {id}"
	// instead of an empty result.
	MissingAsText bool
	Format        Format
}

// NewTranslator returns a Translator reading the language from cache. cache
// may be nil.
func NewTranslator(catalogs Catalogs, cache *settings.Cache) *Translator {
	return &Translator{
		catalogs:      catalogs,
		cache:         cache,
		locale:        SystemLocale,
		MissingAsText: true,
		Format:        FormatDefault,
	}
}

// Language returns the language id in use: the configured one, else the
// system locale, else FallbackLanguage. Ids without a catalog are skipped.
func (t *Translator) Language() string {
	id := ""
	if t.cache != nil {
		id = t.cache.ReadString(LanguagePath, "")
	}
	if id == "" {
		id = t.locale()
	}
	id = strings.ReplaceAll(id, "-", "_")
	if _, ok := t.catalogs[id]; ok {
		return id
	}
	return FallbackLanguage
}

// Lookup returns the translation for id: a string, a list of strings, or
// nil when the id is unknown and MissingAsText is off.
func (t *Translator) Lookup(id string) (any, error) {
	v, ok := t.catalogs[t.Language()][id]
	if !ok {
		if t.MissingAsText {
			return fmt.Sprintf("translation missing {%s}", id), nil
		}
		return nil, nil
	}

	switch s := v.(type) {
	case string:
		return applyFormat(s, t.Format), nil
	case []string:
		if t.Format != FormatDefault && t.Format != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnformattable, id)
		}
		return append([]string(nil), s...), nil
	default:
		return v, nil
	}
}

// Translate returns the translation for id as a string. Lists and errors
// yield the empty string.
func (t *Translator) Translate(id string) string {
	v, err := t.Lookup(id)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// HandleTranslate answers translateContextId requests.
func (t *Translator) HandleTranslate(param any) any {
	id, ok := param.(string)
	if !ok {
		return nil
	}
	v, err := t.Lookup(id)
	if err != nil {
		return nil
	}
	return v
}

func applyFormat(s string, f Format) string {
	switch f {
	case FormatUppercase:
		return strings.ToUpper(s)
	case FormatLowercase:
		return strings.ToLower(s)
	case FormatCapitalize:
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	default:
		return s
	}
}

// SystemLocale returns the user's locale from LC_ALL, LC_MESSAGES or LANG,
// without encoding or modifier, e.g. "de_DE" for "de_DE.UTF-8".
func SystemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := normalizeLocale(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "-", "_")
}
