// Package i18n localizes user facing error messages.
package i18n

import (
	"context"
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var bundle *i18n.Bundle

// supported lists the bundled locales; the first entry is the fallback.
var supported = []language.Tag{language.English, language.BrazilianPortuguese}

var matcher = language.NewMatcher(supported)

// Init loads the embedded message files. Call once at startup before serving.
func Init() error {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"locales/en.toml", "locales/pt-BR.toml"} {
		if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	bundle = b
	return nil
}

// ParseLocale picks the best supported locale for an Accept-Language header value.
func ParseLocale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0].String()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return supported[0].String()
	}
	return supported[idx].String()
}

// NewLocalizer creates a localizer for lang, falling back to English.
// It returns nil before Init, which TWithData treats as "return the message id".
func NewLocalizer(lang string) *i18n.Localizer {
	if bundle == nil {
		return nil
	}
	return i18n.NewLocalizer(bundle, lang, language.English.String())
}

// TWithData translates msgID with template data; unknown ids are returned unchanged.
func TWithData(localizer *i18n.Localizer, msgID string, data map[string]interface{}) string {
	if localizer == nil {
		return msgID
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		return msgID
	}
	return msg
}

type contextKey string

const (
	// ContextKeyLocalizer is the key for the Localizer in context.Context.
	ContextKeyLocalizer contextKey = "i18n.localizer"
	// ContextKeyLocale is the key for the locale string in context.Context.
	ContextKeyLocale contextKey = "i18n.locale"
)

// WithLocalizer stores a Localizer in ctx.
func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ContextKeyLocalizer, localizer)
}

// WithLocale stores a locale string in ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ContextKeyLocale, locale)
}

// LocalizerFromContext returns the request Localizer, or an English one.
func LocalizerFromContext(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(ContextKeyLocalizer).(*i18n.Localizer); ok {
		return localizer
	}
	return NewLocalizer(language.English.String())
}

// LocaleFromContext returns the request locale, or "en".
func LocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(ContextKeyLocale).(string); ok {
		return locale
	}
	return language.English.String()
}
