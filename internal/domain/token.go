package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var tokenPattern = regexp.MustCompile(`^([A-Z]{2})-(\d{4})-(\d{4,})$`)

// FormatToken renders PREFIX-YEAR-NNNN for the given type, year and sequence.
func FormatToken(t RequestType, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", t.TokenPrefix(), year, seq)
}

// ParsedToken is the decomposed form of a token number.
type ParsedToken struct {
	Prefix   string
	Year     int
	Sequence int
}

// ParseToken splits a token number into its parts.
func ParseToken(token string) (ParsedToken, error) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return ParsedToken{}, fmt.Errorf("malformed token number %q", token)
	}
	year, _ := strconv.Atoi(m[2])
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ParsedToken{}, fmt.Errorf("malformed token sequence %q: %w", token, err)
	}
	return ParsedToken{Prefix: m[1], Year: year, Sequence: seq}, nil
}

// YearStart returns midnight on January 1 of now's year in now's location.
func YearStart(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
}

// DayStart returns midnight of now's calendar day in now's location.
func DayStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
