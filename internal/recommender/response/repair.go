package response

import (
	"regexp"
)

var (
	objectGlueRegex    = regexp.MustCompile(`\}\s*\{`)
	trailingCommaRegex = regexp.MustCompile(`,\s*\]`)
)

// FixGlue inserts the missing comma between adjacent objects: `}{` -> `},{`
func FixGlue(text string) string {
	return objectGlueRegex.ReplaceAllString(text, "},{")
}

// FixTrailingCommas drops a comma that directly precedes a closing bracket: `,]` -> `]`
func FixTrailingCommas(text string) string {
	return trailingCommaRegex.ReplaceAllString(text, "]")
}

// Repair applies FixGlue and then FixTrailingCommas.
// Glue runs first because it can leave a comma next to an array close.
func Repair(text string) string {
	return FixTrailingCommas(FixGlue(text))
}
