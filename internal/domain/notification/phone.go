package notification

import (
	"errors"
	"fmt"
	"strings"
)

// localNumberDigits is the length of a national subscriber number.
const localNumberDigits = 9

// ErrInvalidPhone is returned for numbers that cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number")

// PhoneNormalizer rewrites phone numbers into +<country code><9 digits>.
type PhoneNormalizer struct {
	countryCode string
}

// NewPhoneNormalizer creates a normalizer for the given country calling code
// ("212", "+212" and "00212" are equivalent).
func NewPhoneNormalizer(countryCode string) PhoneNormalizer {
	return PhoneNormalizer{countryCode: digitsOnly(strings.TrimPrefix(countryCode, "00"))}
}

// CountryCode returns the calling code without a leading plus.
func (n PhoneNormalizer) CountryCode() string {
	return n.countryCode
}

// Normalize strips formatting and applies the country code:
//
//	"612 345 678"       -> "+212612345678"  (9-digit local number)
//	"0612-345-678"      -> "+212612345678"  (local number with trunk zero)
//	"+212 612 345 678"  -> "+212612345678"  (already international)
//	"00212612345678"    -> "+212612345678"
//
// Anything that does not end up as exactly country code + 9 digits is rejected.
func (n PhoneNormalizer) Normalize(raw string) (string, error) {
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}

	var normalized string
	switch {
	case len(digits) == localNumberDigits:
		normalized = n.countryCode + digits
	case len(digits) == localNumberDigits+1 && digits[0] == '0':
		normalized = n.countryCode + digits[1:]
	case n.countryCode != "" && strings.HasPrefix(digits, n.countryCode):
		normalized = digits
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}

	if n.countryCode == "" || len(normalized) != len(n.countryCode)+localNumberDigits {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return "+" + normalized, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
