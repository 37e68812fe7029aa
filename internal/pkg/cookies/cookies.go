// Package cookies normalizes user-supplied session cookies into a single
// Cookie header value. Two input shapes are accepted: a semicolon-joined
// "k1=v1; k2=v2;" string, or one k=v pair per line.
package cookies

import (
	"strings"

	"github.com/plune/chzzk-clip/internal/models"
)

// Parse normalizes raw cookie input into a credential. Empty or unparsable
// input yields nil, which downstream code treats as anonymous access.
func Parse(raw string) *models.Credential {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var fields []string
	if strings.Contains(raw, ";") {
		fields = strings.Split(raw, ";")
	} else {
		fields = strings.Split(raw, "\n")
	}

	var pairs []models.CookiePair
	seen := make(map[string]int, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}

		// A repeated name overwrites in place, keeping the original position.
		if i, dup := seen[name]; dup {
			pairs[i].Value = value
			continue
		}
		seen[name] = len(pairs)

		pairs = append(pairs, models.CookiePair{Name: name, Value: value})
	}

	return models.NewCredential(pairs)
}
