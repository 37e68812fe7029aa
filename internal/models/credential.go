package models

// Credential is an optional set of session cookies shared read-only across
// all HTTP calls of one acquisition. A nil *Credential means anonymous.
type Credential struct {
	pairs  []CookiePair
	header string
}

type CookiePair struct {
	Name  string
	Value string
}

// NewCredential builds a credential from already-normalized cookie pairs.
func NewCredential(pairs []CookiePair) *Credential {
	if len(pairs) == 0 {
		return nil
	}

	header := ""
	for _, p := range pairs {
		header += p.Name + "=" + p.Value + "; "
	}

	return &Credential{
		pairs:  pairs,
		header: header[:len(header)-1],
	}
}

// Header returns the single semicolon-delimited Cookie header value.
func (c *Credential) Header() string {
	if c == nil {
		return ""
	}
	return c.header
}

// Pairs returns the cookie pairs in their original order.
func (c *Credential) Pairs() []CookiePair {
	if c == nil {
		return nil
	}
	return c.pairs
}
