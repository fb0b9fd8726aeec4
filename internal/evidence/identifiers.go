// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"regexp"
	"sort"
	"strings"
)

// identifierMatcher recognizes one identifier kind. Matchers run in priority
// order (most structurally specific first); a span consumed by an earlier
// matcher is never re-offered to later ones.
type identifierMatcher struct {
	kind     IdentifierKind
	patterns []*regexp.Regexp
}

// Matcher priority: container_id > license_plate > tail_id > fleet > other_id.
var identifierMatchers = []identifierMatcher{
	{
		kind: KindContainerID,
		// ISO 6346: 3-letter owner code, category identifier (U, J, or Z),
		// 6 serial digits, 1 check digit, with optional whitespace between
		// the groups. Requiring the category letter keeps ordinary 4-letter
		// words followed by digits from matching.
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{3}[UJZ]\s?\d{6}\s?\d\b`),
		},
	},
	{
		kind: KindLicensePlate,
		// Common US plate shapes: a 2-3 letter block followed by 3-5 digits,
		// or 3 digits followed by 3 letters. 5-8 characters once normalized.
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{2,3}\s?\d{3,5}\b`),
			regexp.MustCompile(`(?i)\b\d{3}\s?[A-Z]{3}\b`),
		},
	},
	{
		kind: KindTailID,
		// US aircraft registration: N followed by 1-5 alphanumerics. The
		// first character after N must be a digit, as in real registrations;
		// without that every capitalized word starting with N would match.
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bN\d[0-9A-Z]{0,4}\b`),
		},
	},
	{
		kind: KindFleet,
		// Bare 5-7 digit runs. Digit runs inside container IDs or plates are
		// already consumed by the higher-priority matchers.
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{5,7}\b`),
		},
	},
	{
		kind: KindOtherID,
		// Catch-all candidates; filtered below to tokens that actually
		// resemble an identifier.
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Za-z0-9]{4,}\b`),
		},
	},
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

type rawMatch struct {
	id    Identifier
	start int
}

// ExtractIdentifiers recognizes structured identifier substrings in raw OCR
// text. Results are ordered by first occurrence with (kind, value) duplicates
// collapsed. Absence of identifiers is a valid, common result; this function
// never fails.
func ExtractIdentifiers(text string) []Identifier {
	if text == "" {
		return nil
	}

	var consumed []span
	var matches []rawMatch

	for _, m := range identifierMatchers {
		for _, re := range m.patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				s := span{loc[0], loc[1]}
				if overlapsAny(consumed, s) {
					continue
				}
				raw := text[s.start:s.end]
				id, ok := normalizeIdentifier(m.kind, raw, text, s)
				if !ok {
					continue
				}
				consumed = append(consumed, s)
				matches = append(matches, rawMatch{id: id, start: s.start})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	seen := make(map[string]bool, len(matches))
	out := make([]Identifier, 0, len(matches))
	for _, m := range matches {
		key := string(m.id.Kind) + "\x00" + m.id.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.id)
	}
	return out
}

func overlapsAny(spans []span, s span) bool {
	for _, c := range spans {
		if c.overlaps(s) {
			return true
		}
	}
	return false
}

// normalizeIdentifier applies the kind's canonical casing and, for plates,
// resolves the jurisdiction from nearby tokens. It reports false when the
// matched span does not qualify for the kind after closer inspection.
func normalizeIdentifier(kind IdentifierKind, raw, text string, s span) (Identifier, bool) {
	switch kind {
	case KindContainerID:
		return Identifier{Kind: kind, Value: stripSpaces(strings.ToUpper(raw))}, true
	case KindLicensePlate:
		return Identifier{
			Kind:         kind,
			Value:        stripSpaces(strings.ToUpper(raw)),
			Jurisdiction: plateJurisdiction(text, s),
		}, true
	case KindTailID:
		return Identifier{Kind: kind, Value: strings.ToUpper(raw)}, true
	case KindFleet:
		return Identifier{Kind: kind, Value: raw}, true
	case KindOtherID:
		if !resemblesIdentifier(raw) {
			return Identifier{}, false
		}
		return Identifier{Kind: kind, Value: raw}, true
	}
	return Identifier{}, false
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// resemblesIdentifier keeps the other_id catch-all from swallowing ordinary
// words: a token qualifies only when it mixes letters and digits, or is a
// digit run of at least 4.
func resemblesIdentifier(token string) bool {
	var letters, digits int
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			digits++
		default:
			letters++
		}
	}
	if digits == 0 {
		return false
	}
	return letters > 0 || digits >= 4
}

// plateJurisdictionDistance bounds how far (in tokens) a state hint may sit
// from the plate while still being attributed to it.
const plateJurisdictionDistance = 3

var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+`)

// plateJurisdiction looks for a US state name or abbreviation within a few
// tokens of the plate span. Returns "unknown" when no hint is found.
func plateJurisdiction(text string, s span) string {
	locs := tokenRe.FindAllStringIndex(text, -1)
	plateIdx := -1
	for i, loc := range locs {
		if (span{loc[0], loc[1]}).overlaps(s) {
			plateIdx = i
			break
		}
	}
	if plateIdx < 0 {
		return "unknown"
	}
	lo := plateIdx - plateJurisdictionDistance
	if lo < 0 {
		lo = 0
	}
	hi := plateIdx + plateJurisdictionDistance
	if hi > len(locs)-1 {
		hi = len(locs) - 1
	}
	for i := lo; i <= hi; i++ {
		if i == plateIdx {
			continue
		}
		tok := text[locs[i][0]:locs[i][1]]
		if abbr, ok := stateHint(tok); ok {
			return abbr
		}
		// Two-word state names ("New York") span adjacent tokens.
		if i+1 < len(locs) {
			joined := tok + " " + text[locs[i+1][0]:locs[i+1][1]]
			if abbr, ok := stateNameHint(joined); ok {
				return abbr
			}
		}
	}
	return "unknown"
}

func stateHint(token string) (string, bool) {
	if len(token) == 2 {
		up := strings.ToUpper(token)
		if _, ok := stateNamesByAbbr[up]; ok {
			return up, true
		}
		return "", false
	}
	return stateNameHint(token)
}

func stateNameHint(name string) (string, bool) {
	abbr, ok := stateAbbrByName[strings.ToLower(name)]
	return abbr, ok
}

var stateAbbrByName = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

var stateNamesByAbbr = func() map[string]string {
	m := make(map[string]string, len(stateAbbrByName))
	for name, abbr := range stateAbbrByName {
		m[abbr] = name
	}
	return m
}()
