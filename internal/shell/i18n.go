package shell

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/notabene/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator renders the user-facing messages in one language.
type Translator struct {
	localizer *i18n.Localizer

	// Languages lists the locales found in the embedded files.
	Languages []string
}

// NewTranslator loads the embedded locales and selects lang, falling back to English.
func NewTranslator(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	tr := &Translator{}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return tr
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		tr.Languages = append(tr.Languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	tr.localizer = i18n.NewLocalizer(bundle, lang, config.DefaultLanguage)
	return tr
}

// Msg translates a key, returning the key itself when it is unknown.
func (tr *Translator) Msg(key string) string {
	return tr.Msgf(key, nil)
}

// Msgf translates a key with template data.
func (tr *Translator) Msgf(key string, data map[string]any) string {
	if tr.localizer == nil {
		return key
	}
	msg, err := tr.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// SummaryFormatter returns the localized calendar event title builder.
func (tr *Translator) SummaryFormatter() func(name string, age int) string {
	return func(name string, age int) string {
		if age == 0 {
			return tr.Msgf(config.TKeyEvtSummaryBirth, map[string]any{"Name": name})
		}
		return tr.Msgf(config.TKeyEvtSummaryAge, map[string]any{"Name": name, "Age": age})
	}
}
