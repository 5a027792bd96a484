// Package slug turns free text into URL-safe identifier fragments, used for
// portfolio subdomains and export file names.
package slug

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	maxBaseLen    = 20
	suffixLen     = 4
	suffixCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Make lowercases the input, maps every non-alphanumeric run to a single
// hyphen, trims edge hyphens and caps the result at 20 characters. The
// result contains only [a-z0-9-] and Make is idempotent on its own output.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > maxBaseLen {
		s = strings.TrimRight(s[:maxBaseLen], "-")
	}
	return s
}

// IsValid reports whether s is already slug-shaped: non-empty, only
// [a-z0-9-], and no leading or trailing hyphen. Unlike Make it does not cap
// the length, so suffixed subdomains pass.
func IsValid(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// WithSuffix appends a 4-character random suffix to the slug of name,
// separated by a hyphen. The suffix avoids casual collisions; uniqueness is
// still enforced by the store.
func WithSuffix(name string) string {
	return Make(name) + "-" + randomSuffix()
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	max := big.NewInt(int64(len(suffixCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms; fall back
			// to a fixed character rather than propagating an error into
			// every caller.
			buf[i] = 'x'
			continue
		}
		buf[i] = suffixCharset[n.Int64()]
	}
	return string(buf)
}
