package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxTitleSize is 1KB, far above anything that fits on one row.
	DefaultMaxTitleSize = 1024
	// EnvMaxTitleSize is the environment variable to override the default
	EnvMaxTitleSize = "DONA_MAX_TITLE_SIZE"
)

// NormalizeTitle cleans a user supplied title by enforcing a size limit,
// validating UTF-8, flattening whitespace controls and stripping the rest,
// then trimming. A limit <= 0 selects the default.
//
// It returns ErrEmptyTitle when nothing is left, and ErrInvalidTitle when the
// input is rejected outright.
func NormalizeTitle(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = maxTitleSize()
	}
	if len(input) > limit {
		// Reject rather than truncate so the stored title is what the user typed.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInvalidTitle, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrInvalidTitle)
	}

	// Titles are single-line: newline, tab and CR become spaces, every other
	// control character (ESC, NUL, BEL...) is dropped.
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	title := strings.TrimSpace(b.String())
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

func maxTitleSize() int {
	if val := os.Getenv(EnvMaxTitleSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTitleSize
}
