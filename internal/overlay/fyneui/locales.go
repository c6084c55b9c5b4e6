package fyneui

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// localizer wraps the small, fixed set of overlay chrome strings — the
// renderer has no config-authored copy to translate, only its own status
// line — so the message catalog is built in code rather than loaded from
// a translation file.
type localizer struct {
	loc *i18n.Localizer
}

func newLocalizer() *localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.AddMessages(language.English,
		&i18n.Message{ID: "ModeLabel", Other: "mode: {{.Mode}}"},
		&i18n.Message{ID: "WaitingForConnection", Other: "waiting for connection"},
	)
	return &localizer{loc: i18n.NewLocalizer(bundle, language.English.String())}
}

func (l *localizer) modeLabel(mode string) string {
	return l.loc.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    "ModeLabel",
		TemplateData: map[string]string{"Mode": mode},
	})
}

func (l *localizer) waitingForConnection() string {
	return l.loc.MustLocalize(&i18n.LocalizeConfig{MessageID: "WaitingForConnection"})
}
