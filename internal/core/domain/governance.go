package domain

import "regexp"

// GovernancePrefix is the fixed literal every governance code starts with.
const GovernancePrefix = "HERA"

// Governance code grammar: PREFIX.SEGMENT{3,15}(.SEGMENT{2,30}){3,8}.vN where
// each segment is uppercase alphanumeric/underscore and the version tag is a
// lowercase 'v' followed by digits. The whole string must match; no
// normalization, no partial matches.
var governanceCodePattern = regexp.MustCompile(`^` + GovernancePrefix + `\.[A-Z0-9_]{3,15}(\.[A-Z0-9_]{2,30}){3,8}\.v[0-9]+$`)

// ValidGovernanceCode reports whether code matches the governance grammar.
func ValidGovernanceCode(code string) bool {
	return governanceCodePattern.MatchString(code)
}
