// Package filename builds deterministic, filesystem-safe artifact names from
// video titles. Chzzk titles routinely carry decorative unicode that breaks
// naive path handling, so those are stripped along with shell-hostile ASCII.
package filename

import (
	"fmt"
	"strings"
	"time"
)

var decorative = []string{
	"♥", "♡", "ღ", "⭐", "㉦", "✧", "》", "《", "♠", "♦", "❤️", "♣", "✿", "ꈍ", "ᴗ", "★",
}

const asciiSpecials = `/@!~*[]#$%^&()-_=+<>?;:'"` + "`" + `\|{},`

// Clean strips characters that are unsafe or noisy in filenames.
func Clean(title string) string {
	for _, d := range decorative {
		title = strings.ReplaceAll(title, d, "")
	}

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if r < 128 && strings.ContainsRune(asciiSpecials, r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// Generate builds "<cleanTitle>_<quality>_<YYYYMMDD_HHMMSS>.<ext>".
func Generate(title, quality, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", Clean(title), quality, at.Format("20060102_150405"), ext)
}
