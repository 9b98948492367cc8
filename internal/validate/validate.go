package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"wedmarket/internal/domain"
)

var (
	reQ      = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone  = regexp.MustCompile(`^\+?[0-9 ]{6,20}$`)
	reIGUser = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
)

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// ID validates a simple resource identifier (product/ad/request ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Category accepts the fixed enumeration and its aliases.
func Category(s string) (domain.Category, bool) {
	return domain.ParseCategory(s)
}

// Price parses a non-negative price; empty means 0 (contact for price).
func Price(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1e9 {
		return 0, false
	}
	return f, true
}

// Text trims and bounds free text.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= max
}

// Phone validates a WhatsApp number; empty is allowed.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || rePhone.MatchString(s)
}

// Link validates an optional http(s) URL.
func Link(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return s, true
}

// Instagram reduces a profile URL or @handle to the bare username. Values
// that do not look like a username are dropped.
func Instagram(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.Index(strings.ToLower(s), "instagram.com/"); i >= 0 {
		s = s[i+len("instagram.com/"):]
		if j := strings.IndexAny(s, "/?#"); j >= 0 {
			s = s[:j]
		}
	}
	s = strings.TrimPrefix(s, "@")
	if !reIGUser.MatchString(s) {
		return ""
	}
	return s
}

// Tags parses a tag set sent as JSON array or comma separated text.
func Tags(s string) domain.StringList {
	return domain.ParseStringList(s)
}

func Status(s string) (domain.SubmissionStatus, bool) {
	st := domain.SubmissionStatus(strings.TrimSpace(s))
	return st, st.Valid()
}
