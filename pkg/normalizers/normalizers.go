// Package normalizers provides field canonicalization so comparisons are meaningful
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("nemail", NormalizeEmail)
	Register("nphone", NormalizePhone)
	Register("nphone_all", NormalizePhoneAllDigits)
	Register("nname", NormalizeName)
	Register("name_key", NameKey)
	Register("remove_whitespace", RemoveWhitespace)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lowercases an email address. Returns "" when the result is
// not local@domain.tld shaped: exactly one @, a non-empty local part, and a domain
// with at least one interior dot.
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return ""
	}

	domain := s[at+1:]
	dot := strings.Index(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return ""
	}

	return s
}

// NormalizePhone strips all non-digit characters and reduces the number to its last 10
// digits. An 11-digit number with a leading US country code 1 drops the 1. Fewer than
// 10 digits returns "".
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < 10 {
		return ""
	}
	return digits[len(digits)-10:]
}

// NormalizePhoneAllDigits is the configurable alternative for non-US numbers: digits
// beyond the last 10 are kept instead of trimmed. The minimum-length rule and the
// leading-1 US country code drop still apply, so US numbers normalize identically in
// both modes.
func NormalizePhoneAllDigits(s string) string {
	digits := DigitsOnly(s)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < 10 {
		return ""
	}
	return digits
}

// NormalizeName trims, collapses internal whitespace, and title-cases each word.
func NormalizeName(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = titleCaseWord(f)
	}
	return strings.Join(fields, " ")
}

// NameKey is the comparison form of a name: normalized then lowercased. Full-name
// matching is case-insensitive.
func NameKey(s string) string {
	return strings.ToLower(NormalizeName(s))
}

// SplitName splits a free-form name: one token is a given name only, two tokens are
// given/family, and for three or more tokens the first token is the given name and the
// remaining tokens are the family name.
func SplitName(s string) (first, last string) {
	fields := strings.Fields(NormalizeName(s))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// RemoveWhitespace removes all whitespace characters
func RemoveWhitespace(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func titleCaseWord(w string) string {
	runes := []rune(strings.ToLower(w))
	upperNext := true
	for i, r := range runes {
		if upperNext && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			upperNext = false
		}
		// Hyphenated and apostrophe names keep each part capitalized
		if r == '-' || r == '\'' {
			upperNext = true
		}
	}
	return string(runes)
}
