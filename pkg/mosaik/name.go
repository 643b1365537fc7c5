package mosaik

import (
	"strings"
	"time"
	"unicode"
)

// DefaultName is used when an output name sanitizes to nothing.
const DefaultName = "mosaik"

const maxNameLen = 200

// SanitizeName makes name safe as a file name: reserved characters and
// whitespace become dashes, and the result is capped at 200 characters.
func SanitizeName(name, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		if strings.ContainsRune(`<>:"/\|?*`, r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			if !dash {
				b.WriteByte('-')
				dash = true
			}
			continue
		}
		b.WriteRune(r)
		dash = false
	}

	out := strings.Trim(b.String(), "-. ")
	if rs := []rune(out); len(rs) > maxNameLen {
		out = strings.TrimRight(string(rs[:maxNameLen]), "-. ")
	}
	if out == "" {
		return fallback
	}
	return out
}

// withDate appends t as YYYY-MM-DD.
func withDate(name string, t time.Time) string {
	return name + "-" + t.Format("2006-01-02")
}
