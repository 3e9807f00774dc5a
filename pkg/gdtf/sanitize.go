package gdtf

import (
	"regexp"
	"strings"
)

var (
	symbolReplacer = strings.NewReplacer(
		"°", "deg",
		"%", "pct",
		"/", "_",
		".", "_",
		":", "_",
		";", "_",
	)
	invalidNameChars  = regexp.MustCompile(`[^A-Za-z0-9_ \-]`)
	spaceOrUnderscore = regexp.MustCompile(`[ _]+`)
	shortNameChars    = regexp.MustCompile(`[^A-Z0-9]`)
)

// SafeName sanitizes free text into a GDTF node name. Degree and percent
// signs become words, separators become underscores, anything else outside
// [A-Za-z0-9_ -] is stripped, and runs of spaces or underscores collapse to
// a single underscore. When the result is empty or would start with a digit,
// the fallback is prefixed so the name stays a valid identifier.
//
// The result is never empty and never contains a dot, which keeps node names
// usable inside InitialFunction paths.
func SafeName(text, fallback string) string {
	s := strings.TrimSpace(text)
	s = symbolReplacer.Replace(s)
	s = invalidNameChars.ReplaceAllString(s, "")
	s = spaceOrUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = fallback + "_" + s
	}
	return s
}

// ShortName derives the console short name from an already sanitized fixture
// name: uppercase alphanumerics only, at most eight characters, with
// "FIXTURE" as the last resort.
func ShortName(safeName string) string {
	s := shortNameChars.ReplaceAllString(strings.ToUpper(safeName), "")
	if len(s) > 8 {
		s = s[:8]
	}
	if s == "" {
		return "FIXTURE"
	}
	return s
}
