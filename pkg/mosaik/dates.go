package mosaik

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type dateStyle struct {
	months  [12]string
	pattern string // {d} {m} {y}
}

var locales = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Swedish,
	language.Polish,
	language.Czech,
}

var styles = []dateStyle{
	{[12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}, "{m} {d}, {y}"},
	{[12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."}, "{d}. {m} {y}"},
	{[12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}, "{d} {m} {y}"},
	{[12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}, "{d} {m} {y}"},
	{[12]string{"jan.", "feb.", "mars", "apr.", "maj", "juni", "juli", "aug.", "sep.", "okt.", "nov.", "dec."}, "{d} {m} {y}"},
	{[12]string{"sty", "lut", "mar", "kwi", "maj", "cze", "lip", "sie", "wrz", "paź", "lis", "gru"}, "{d} {m} {y}"},
	{[12]string{"led", "úno", "bře", "dub", "kvě", "čvn", "čvc", "srp", "zář", "říj", "lis", "pro"}, "{d}. {m} {y}"},
}

var matcher = language.NewMatcher(locales)

// DateFormatter returns a short-date formatter ("Jun 1, 2024") for the
// closest supported locale. Unknown locales fall back to English.
func DateFormatter(locale string) func(time.Time) string {
	_, idx := language.MatchStrings(matcher, locale)
	st := styles[idx]
	return func(t time.Time) string {
		r := strings.NewReplacer(
			"{d}", strconv.Itoa(t.Day()),
			"{m}", st.months[t.Month()-1],
			"{y}", strconv.Itoa(t.Year()),
		)
		return r.Replace(st.pattern)
	}
}
