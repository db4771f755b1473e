// Package locale resolves the storefront language and keeps the per-session
// language preference.
package locale

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/utafrali/storefront/internal/persist"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Language is a supported UI language.
type Language string

const (
	English Language = "en"
	Hebrew  Language = "he"
)

// Direction is the text direction of a language.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

var (
	supported = []Language{English, Hebrew}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Hebrew})
)

// Supported returns the languages in preference order.
func Supported() []Language {
	return append([]Language(nil), supported...)
}

// Direction returns rtl for Hebrew and ltr otherwise.
func (l Language) Direction() Direction {
	if l == Hebrew {
		return RTL
	}
	return LTR
}

// Tag returns the BCP 47 tag.
func (l Language) Tag() language.Tag {
	if l == Hebrew {
		return language.Hebrew
	}
	return language.English
}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	return l == English || l == Hebrew
}

// Parse resolves a BCP 47 tag or Accept-Language value to a supported
// language. Regional and legacy forms such as en-US, he-IL and iw match.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.InvalidInput("language is required")
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return "", apperrors.InvalidInput("invalid language tag " + s)
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", apperrors.InvalidInput("unsupported language " + s)
	}
	return supported[idx], nil
}

type state struct {
	Language  Language  `json:"language"`
	Direction Direction `json:"direction"`
}

// Preference is the persisted language choice of one session.
type Preference struct {
	mu     sync.RWMutex
	kv     repository.KeyValueStore
	key    string
	lang   Language
	logger *slog.Logger
	guard  func() error
}

// GuardWrites installs fn, consulted before every write. A non-nil error
// refuses the write.
func (p *Preference) GuardWrites(fn func() error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.guard = fn
}

// NewPreference restores the preference stored under key
// (persist.LocaleKey when empty), falling back to def.
func NewPreference(ctx context.Context, kv repository.KeyValueStore, key string, def Language, logger *slog.Logger) *Preference {
	if key == "" {
		key = persist.LocaleKey
	}
	if !def.Valid() {
		def = English
	}
	p := &Preference{kv: kv, key: key, lang: def, logger: logger}

	st, ok, err := persist.LoadDocument[state](ctx, kv, key, persist.LocaleVersion)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "failed to restore language preference",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	case ok && st.Language.Valid():
		p.lang = st.Language
	}
	return p
}

// Language returns the current language.
func (p *Preference) Language() Language {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang
}

// Tag returns the current language tag.
func (p *Preference) Tag() language.Tag {
	return p.Language().Tag()
}

// saveTimeout bounds a preference write detached from the request.
const saveTimeout = 5 * time.Second

// Set changes the language and persists it. The write does not follow
// ctx's cancellation, so a disconnecting client still keeps the change. A
// failed write is logged and the new language stays in effect.
func (p *Preference) Set(ctx context.Context, lang Language) error {
	if !lang.Valid() {
		return apperrors.InvalidInput("unsupported language " + string(lang))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lang = lang

	if err := p.save(ctx, lang); err != nil {
		p.logger.ErrorContext(ctx, "failed to persist language preference",
			slog.String("key", p.key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (p *Preference) save(ctx context.Context, lang Language) error {
	if p.guard != nil {
		if err := p.guard(); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	return persist.SaveDocument(ctx, p.kv, p.key, persist.LocaleVersion, state{
		Language:  lang,
		Direction: lang.Direction(),
	})
}
