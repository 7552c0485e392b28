// Package cnj normalizes Brazilian CNJ case numbers
// (NNNNNNN-DD.AAAA.J.TR.OOOO: sequence, check digits, year, judicial
// branch, court, forum).
package cnj

import "strings"

// CanonicalDigits is the digit count of a complete CNJ number.
const CanonicalDigits = 20

// Normalize returns the canonical punctuated form of a CNJ case number.
// Input may be bare digits or any punctuated variant. When exactly 20
// digits cannot be recovered the input is returned unchanged; callers
// must treat such values as having an unknown forum, never as an error.
func Normalize(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) != CanonicalDigits {
		return raw
	}
	var b strings.Builder
	b.Grow(25)
	b.WriteString(digits[0:7])
	b.WriteByte('-')
	b.WriteString(digits[7:9])
	b.WriteByte('.')
	b.WriteString(digits[9:13])
	b.WriteByte('.')
	b.WriteString(digits[13:14])
	b.WriteByte('.')
	b.WriteString(digits[14:16])
	b.WriteByte('.')
	b.WriteString(digits[16:20])
	return b.String()
}

// ForumCode extracts the 4-digit forum (comarca) code embedded in a
// case number, or "" when the number is not a complete CNJ number.
func ForumCode(number string) string {
	digits := onlyDigits(number)
	if len(digits) < CanonicalDigits {
		return ""
	}
	return digits[16:20]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
