// Package isbn validates and converts International Standard Book Numbers.
package isbn

import (
	"errors"
	"strings"
)

// ErrInvalid is returned when a string is not a valid ISBN-10 or ISBN-13.
var ErrInvalid = errors.New("invalid isbn")

// Canonical strips separators and upper-cases the ISBN-10 check character.
// It does not validate the result.
func Canonical(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		case r == '-' || r == ' ':
		default:
			// Keep unexpected characters so validation fails on them.
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether s is a valid ISBN-10 or ISBN-13, hyphens and spaces allowed.
func Valid(s string) bool {
	c := Canonical(s)
	switch len(c) {
	case 10:
		return valid10(c)
	case 13:
		return valid13(c)
	}
	return false
}

func valid10(c string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		ch := c[i]
		var v int
		switch {
		case ch >= '0' && ch <= '9':
			v = int(ch - '0')
		case ch == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func valid13(c string) bool {
	if !strings.HasPrefix(c, "978") && !strings.HasPrefix(c, "979") {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		ch := c[i]
		if ch < '0' || ch > '9' {
			return false
		}
		v := int(ch - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

// To13 returns the canonical ISBN-13 form of s.
func To13(s string) (string, error) {
	c := Canonical(s)
	switch {
	case len(c) == 13 && valid13(c):
		return c, nil
	case len(c) == 10 && valid10(c):
		body := "978" + c[:9]
		return body + string(check13(body)), nil
	}
	return "", ErrInvalid
}

// To10 returns the canonical ISBN-10 form of s. ISBN-13s outside the 978 prefix
// have no ISBN-10 equivalent.
func To10(s string) (string, error) {
	c := Canonical(s)
	switch {
	case len(c) == 10 && valid10(c):
		return c, nil
	case len(c) == 13 && valid13(c) && strings.HasPrefix(c, "978"):
		body := c[3:12]
		return body + string(check10(body)), nil
	}
	return "", ErrInvalid
}

func check13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		v := int(body[i] - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return byte('0' + (10-sum%10)%10)
}

func check10(body string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	r := (11 - sum%11) % 11
	if r == 10 {
		return 'X'
	}
	return byte('0' + r)
}
