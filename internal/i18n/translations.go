package i18n

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// Translator is a thin wrapper around go-i18n's Bundle/Localizer bound to
// one locale.
type Translator struct {
	localizer *i18n.Localizer
	logger    *zap.Logger
}

// NewTranslator builds a Translator for locale, falling back to English
func NewTranslator(locale string, logger *zap.Logger) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := localeFS.ReadDir(".")
	if err != nil {
		logger.Error("Failed to list locale files", zap.Error(err))
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f.Name()); err != nil {
			logger.Warn("Failed to load locale file", zap.String("file", f.Name()), zap.Error(err))
		}
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	return &Translator{
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		logger:    logger,
	}
}

// T renders the message identified by key. Unknown keys render as the key.
func (t *Translator) T(key string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Warn("Missing translation", zap.String("key", key), zap.Error(err))
		return key
	}
	return msg
}
