// Package waid classifies and normalizes the identifier shapes WhatsApp
// exposes: phone-derived JIDs, opaque linked-device ids, display names with
// directional marks, and composite message ids.
package waid

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// countryPrefix is the digit prefix of the region the crawler targets.
const countryPrefix = "972"

// linkedIDSuffix marks opaque linked-device ids of participants who have not
// exposed a phone number.
const linkedIDSuffix = "@lid"

var (
	// intlPhoneRe matches country-code-prefixed numbers, with optional plus
	// sign and single space or dash separators between digits.
	intlPhoneRe = regexp.MustCompile(`^\+?` + countryPrefix + `[\s-]?\d(?:[\s-]?\d){7,8}$`)

	// localPhoneRe matches bare nine-digit local numbers.
	localPhoneRe = regexp.MustCompile(`^\d{9}$`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

// directionalMarks covers the bidirectional formatting characters that
// right-to-left contact names and group subjects carry: ALM, LRM/RLM, the
// embedding and override controls, and the isolate controls.
var directionalMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x061c, Hi: 0x061c, Stride: 1},
		{Lo: 0x200e, Hi: 0x200f, Stride: 1},
		{Lo: 0x202a, Hi: 0x202e, Stride: 1},
		{Lo: 0x2066, Hi: 0x2069, Stride: 1},
	},
}

var markRemover = runes.Remove(runes.In(directionalMarks))

// StripSuffix drops the domain suffix from a JID, turning
// "972501234567@c.us" into "972501234567". Values without a suffix pass
// through unchanged.
func StripSuffix(s string) string {
	before, _, _ := strings.Cut(s, "@")
	return before
}

// IsLinkedID reports whether s is an opaque linked-device id.
func IsLinkedID(s string) bool {
	return strings.HasSuffix(s, linkedIDSuffix)
}

// IsPhoneNumber reports whether s looks like a regional phone number, either
// country-code-prefixed or a bare nine-digit local number. It accepts every
// value NormalizePhone can produce.
func IsPhoneNumber(s string) bool {
	s = strings.TrimSpace(s)

	return intlPhoneRe.MatchString(s) || localPhoneRe.MatchString(s)
}

// NormalizePhone strips all non-digits. If the digit-only form does not begin
// with the expected country prefix the original input is returned unchanged:
// the function fails closed and never fabricates a prefix.
func NormalizePhone(s string) string {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if !strings.HasPrefix(digits, countryPrefix) {
		return s
	}

	return digits
}

// LocalForm rewrites a country-prefixed digit string to its leading-zero
// local form, "972501234567" becoming "0501234567". Other values pass
// through unchanged.
func LocalForm(digits string) string {
	if !strings.HasPrefix(digits, countryPrefix) {
		return digits
	}

	return "0" + digits[len(countryPrefix):]
}

// StripDirectionalMarks removes Unicode directional formatting marks without
// reordering the remaining characters, then trims surrounding space. Used to
// make right-to-left text safe for filenames and comparisons.
func StripDirectionalMarks(s string) string {
	out, _, err := transform.String(markRemover, s)
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(out)
}
