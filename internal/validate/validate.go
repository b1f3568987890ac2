package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reLabel = regexp.MustCompile(`^[A-Za-z0-9 '’\-]{1,40}$`)
	reSID   = regexp.MustCompile(`^[A-Za-z0-9\-]{8,64}$`)
)

// Message validates a chat/search free-text input: trims, caps length,
// rejects control characters.
func Message(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 200 {
		s = s[:200]
	}
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\t' {
			return "", false
		}
	}
	return s, true
}

// Label validates a category/color/gender filter value.
func Label(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reLabel.MatchString(s)
}

// Price parses a max-price filter arg; 0 means absent.
func Price(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1_000_000 {
		return 0, false
	}
	return v, true
}

// SessionID validates the sid cookie / body field shape.
func SessionID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reSID.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 64
}
