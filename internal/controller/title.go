package controller

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// dateInputLayout is the value format of an HTML date input.
const dateInputLayout = "2006-01-02"

var (
	dateLocales = []language.Tag{
		language.AmericanEnglish, // first entry is the matcher fallback
		language.BritishEnglish,
		language.German,
		language.French,
		language.Spanish,
		language.Italian,
		language.Dutch,
		language.Japanese,
		language.Chinese,
		language.Korean,
		language.Russian,
		language.Turkish,
	}
	dateLayouts = map[language.Tag]string{
		language.AmericanEnglish: "1/2/2006",
		language.BritishEnglish:  "02/01/2006",
		language.German:          "2.1.2006",
		language.French:          "02/01/2006",
		language.Spanish:         "2/1/2006",
		language.Italian:         "2/1/2006",
		language.Dutch:           "2-1-2006",
		language.Japanese:        "2006/1/2",
		language.Chinese:         "2006/1/2",
		language.Korean:          "2006. 1. 2.",
		language.Russian:         "02.01.2006",
		language.Turkish:         "02.01.2006",
	}
	dateMatcher = language.NewMatcher(dateLocales)
)

// TitleComposer builds the title sent for the extended form.
type TitleComposer struct {
	layout string
}

// NewTitleComposer picks the closest supported date layout for locale,
// e.g. "en-US", "de", "fr-CA". Unknown locales fall back to en-US.
func NewTitleComposer(locale string) TitleComposer {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		tags = []language.Tag{language.AmericanEnglish}
	}
	_, idx, _ := dateMatcher.Match(tags...)
	return TitleComposer{layout: dateLayouts[dateLocales[idx]]}
}

// FormatDate renders an HTML date value in the composer's locale. Values that
// do not parse are returned trimmed but otherwise untouched.
func (tc TitleComposer) FormatDate(value string) string {
	value = strings.TrimSpace(value)
	d, err := time.Parse(dateInputLayout, value)
	if err != nil {
		return value
	}
	return d.Format(tc.layout)
}

// Compose returns "title (date time)" with empty parts left out, or the bare
// title when neither date nor time is set.
func (tc TitleComposer) Compose(in Input) string {
	title := strings.TrimSpace(in.Title)
	var parts []string
	if d := strings.TrimSpace(in.Date); d != "" {
		parts = append(parts, tc.FormatDate(d))
	}
	if t := strings.TrimSpace(in.Time); t != "" {
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return title
	}
	return title + " (" + strings.Join(parts, " ") + ")"
}
