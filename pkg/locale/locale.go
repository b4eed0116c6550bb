// Package locale resolves the table's display strings by numeric code.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// CodeInvalidData is the code of the "invalid data" message.
const CodeInvalidData = 2

//go:embed messages/*.toml
var messageFS embed.FS

// Catalog implements ports.Locale on top of a go-i18n bundle.
// Safe for concurrent use.
type Catalog struct {
	bundle *i18n.Bundle

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
}

// New loads the embedded message files and selects lang.
// Unknown languages fall back to English.
func New(lang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(messageFS, "messages/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list message files: %w", err)
	}
	for _, name := range files {
		data, err := messageFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	c := &Catalog{bundle: bundle}
	c.SetLocale(lang)
	return c, nil
}

// MustNew is like New but panics on error. The message files are embedded, so an
// error here is a build defect.
func MustNew(lang string) *Catalog {
	c, err := New(lang)
	if err != nil {
		panic(err)
	}
	return c
}

// SetLocale switches the active language.
func (c *Catalog) SetLocale(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lang = lang
	c.localizer = i18n.NewLocalizer(c.bundle, lang, language.English.String())
}

// Locale returns the active language.
func (c *Catalog) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// Get returns the display string for code, or "" when there is none.
func (c *Catalog) Get(code int) string {
	c.mu.RLock()
	localizer := c.localizer
	c.mu.RUnlock()

	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: strconv.Itoa(code)})
	if err != nil {
		return ""
	}
	return msg
}
