package team

import "strings"

// MatchKind records which rule resolved an assignee.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchRoster    MatchKind = "roster"
	MatchSubstring MatchKind = "substring"
)

// minSubstringLen keeps very short names from matching inside unrelated ones.
const minSubstringLen = 3

// Match is the Hubstaff display name an assignee resolved to.
type Match struct {
	DisplayName string    `json:"displayName"`
	Kind        MatchKind `json:"kind"`
}

// MatchAssignee resolves an internal assignee name against Hubstaff display names.
// Rules are tried in order:
//  1. exact, case-insensitive display name match
//  2. roster short name whose hubstaff name is among displayNames
//  3. substring containment in either direction, first hit in displayNames order
//
// Rule 3 can produce false positives and only applies when the shorter side has
// at least minSubstringLen characters.
func MatchAssignee(assignee string, roster *Roster, displayNames []string) (Match, bool) {
	a := normalize(assignee)
	if a == "" {
		return Match{}, false
	}

	for _, dn := range displayNames {
		if normalize(dn) == a {
			return Match{DisplayName: dn, Kind: MatchExact}, true
		}
	}

	if m, ok := roster.LookupByName(assignee); ok && !m.Skipped() {
		for _, dn := range displayNames {
			if strings.EqualFold(strings.TrimSpace(dn), m.HubstaffName) {
				return Match{DisplayName: dn, Kind: MatchRoster}, true
			}
		}
	}

	for _, dn := range displayNames {
		d := normalize(dn)
		if d == "" {
			continue
		}
		shorter := min(len(a), len(d))
		if shorter < minSubstringLen {
			continue
		}
		if strings.Contains(d, a) || strings.Contains(a, d) {
			return Match{DisplayName: dn, Kind: MatchSubstring}, true
		}
	}

	return Match{}, false
}
