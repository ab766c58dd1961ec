package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/pavelanni/mcqxai/internal/reasoner"
)

var jsonUnmarshal = json.Unmarshal

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var (
	bundle      *i18n.Bundle
	defaultLang string
)

// Init loads the translation bundle with lang as the default language.
// lang must have a locale file.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", jsonUnmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	// The bundle reports its default tag even without messages for it, so
	// the loaded languages come from the parsed files.
	var loaded []language.Tag
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		mf, err := b.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		loaded = append(loaded, mf.Tag)
		slog.Debug("loaded locale file", "file", e.Name())
	}

	if !hasLanguage(loaded, tag) {
		return fmt.Errorf("no translations for language %q (available: %s)", lang, strings.Join(Languages(), ", "))
	}

	bundle = b
	defaultLang = tag.String()
	return nil
}

// hasLanguage reports whether tag has its own locale file.
func hasLanguage(loaded []language.Tag, tag language.Tag) bool {
	for _, t := range loaded {
		if t == tag {
			return true
		}
	}
	return false
}

// Languages returns the languages that have a locale file. It does not
// need Init.
func Languages() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
		}
	}
	return out
}

// NewLocalizer creates a localizer preferring langs, which may be plain
// tags or Accept-Language header values, then the default language.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, append(langs, defaultLang)...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return NewLocalizer()
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	return Td(ctx, msgID, nil)
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	loc := localizerFromCtx(ctx)
	s, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// Tp translates a pluralized message by ID.
func Tp(ctx context.Context, msgID string, count int) string {
	loc := localizerFromCtx(ctx)
	s, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// ReasonerTexts returns the rule-based feedback texts for the context's
// language.
func ReasonerTexts(ctx context.Context) reasoner.Texts {
	return reasoner.Texts{
		CorrectHint:        T(ctx, "CorrectHint"),
		CorrectReviewTopic: T(ctx, "CorrectReviewTopic"),
		IncorrectHint:      T(ctx, "IncorrectHint"),
		GenericReviewTopic: T(ctx, "GenericReviewTopic"),
		EvidenceReviewTopic: func(snippet string) string {
			return Td(ctx, "EvidenceReviewTopic", map[string]any{"Evidence": snippet})
		},
	}
}

// StatusLabel translates a verdict such as "correct".
func StatusLabel(ctx context.Context, status string) string {
	switch strings.ToLower(status) {
	case "correct":
		return T(ctx, "StatusCorrect")
	case "incorrect":
		return T(ctx, "StatusIncorrect")
	}
	return status
}
