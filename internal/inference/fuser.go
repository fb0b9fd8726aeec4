// SPDX-License-Identifier: Apache-2.0

package inference

import (
	"sort"
	"strings"

	"github.com/beaucronin/image-discerner/internal/evidence"
)

// Per-evidence-kind confidence bonuses. These reward multi-signal
// corroboration without letting any single bonus dominate; treat them as a
// documented default policy.
const (
	identifierBonus = 0.05
	extraLabelBonus = 0.03
	operatorBonus   = 0.02

	// synthesizedConfidence is assigned to entities created for identifiers
	// with no type-compatible fired rule. Single-signal by definition, so it
	// sits below any fired rule with a base of 0.5 or more.
	synthesizedConfidence = 0.50
)

// Candidate is one fused entity before wire formatting.
type Candidate struct {
	Type        string
	Operator    string // "" when none assigned
	Identifiers []evidence.Identifier
	Confidence  float64
	Evidence    []string
	Description string

	order int
}

// Fuser applies a pattern library and an operator table to evidence bundles.
// It is stateless across invocations; the tables are read-only, so a single
// Fuser is safe for concurrent use.
type Fuser struct {
	lib       *Library
	operators []evidence.OperatorDef
}

// NewFuser builds a fuser over the given library and operator table.
func NewFuser(lib *Library, operators []evidence.OperatorDef) *Fuser {
	return &Fuser{lib: lib, operators: operators}
}

// Fuse runs one fusion pass over a bundle and returns the final ordered
// candidate entities. It never fails: absence of signal degrades to fewer or
// no candidates.
func (f *Fuser) Fuse(bundle evidence.Bundle) []Candidate {
	ids := evidence.ExtractIdentifiers(bundle.Text)
	matches := evidence.DetectOperators(bundle.Text, bundle.Labels, f.operators)
	winner, hasWinner := resolveOperator(matches)

	labelTokens := make([]string, len(bundle.Labels))
	for i, l := range bundle.Labels {
		labelTokens[i] = l.Label
	}
	lowerText := strings.ToLower(bundle.Text)

	var cands []Candidate
	attached := make([]bool, len(ids))

	for i := range f.lib.rules {
		r := &f.lib.rules[i]

		matchedLabels := r.matchedLabels(labelTokens)
		if !labelRequirementMet(r, matchedLabels) {
			continue
		}
		matchedPatterns := r.matchedPatterns(lowerText)
		if len(r.compiled) > 0 && len(matchedPatterns) == 0 {
			continue
		}

		var cids []evidence.Identifier
		for j, id := range ids {
			if kindCompatible(id.Kind, r.Type) {
				cids = append(cids, id)
				attached[j] = true
			}
		}
		cids = preferSevenDigitFleet(cids)

		conf := r.BaseConfidence
		conf += identifierBonus * float64(len(cids))
		conf += extraLabelBonus * float64(len(matchedLabels)-r.minRequiredLabels())
		if hasWinner && r.consistentWithOperator(winner.Operator) {
			conf += operatorBonus
		}

		var op string
		if hasWinner && operatorCompatible(r.Type) {
			op = winner.Operator
		}

		tags := make([]string, 0, len(r.EvidenceTags)+len(matchedLabels)+len(matchedPatterns)+len(cids))
		tags = append(tags, r.EvidenceTags...)
		for _, l := range matchedLabels {
			tags = append(tags, "detected_"+l)
		}
		for _, p := range matchedPatterns {
			tags = append(tags, "text_pattern_"+p)
		}
		for _, id := range cids {
			tags = append(tags, "identifier_"+string(id.Kind))
		}

		cands = append(cands, Candidate{
			Type:        r.Type,
			Operator:    op,
			Identifiers: cids,
			Confidence:  clamp01(conf),
			Evidence:    unionStrings(tags, nil),
			order:       i,
		})
	}

	cands = append(cands, f.synthesize(ids, attached, winner, hasWinner)...)
	cands = mergeCandidates(cands)

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].order < cands[j].order
	})

	for i := range cands {
		cands[i].Description = describe(cands[i].Type, cands[i].Identifiers)
	}
	return cands
}

// synthesize creates minimal generic entities for identifiers that no fired
// rule could take, so no detected structured identifier is silently dropped.
func (f *Fuser) synthesize(ids []evidence.Identifier, attached []bool, winner evidence.OperatorMatch, hasWinner bool) []Candidate {
	var out []Candidate
	index := make(map[string]int)
	order := f.lib.Len()

	for j, id := range ids {
		if attached[j] {
			continue
		}
		typ := impliedType(id.Kind)
		k, ok := index[typ]
		if !ok {
			var op string
			if hasWinner && operatorCompatible(typ) {
				op = winner.Operator
			}
			out = append(out, Candidate{
				Type:       typ,
				Operator:   op,
				Confidence: synthesizedConfidence,
				Evidence:   []string{"identifier_only"},
				order:      order,
			})
			order++
			k = len(out) - 1
			index[typ] = k
		}
		out[k].Identifiers = append(out[k].Identifiers, id)
		out[k].Evidence = append(out[k].Evidence, "identifier_"+string(id.Kind))
	}
	for k := range out {
		out[k].Identifiers = preferSevenDigitFleet(out[k].Identifiers)
	}
	return out
}

// mergeCandidates folds candidates sharing a (type, operator) pair into one:
// identifiers unioned order-preserving, confidence the maximum of the two.
func mergeCandidates(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	index := make(map[string]int, len(cands))

	for _, c := range cands {
		key := c.Type + "\x00" + c.Operator
		j, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		m := &out[j]
		m.Identifiers = unionIdentifiers(m.Identifiers, c.Identifiers)
		if c.Confidence > m.Confidence {
			m.Confidence = c.Confidence
		}
		m.Evidence = unionStrings(m.Evidence, c.Evidence)
	}
	return out
}

func unionIdentifiers(a, b []evidence.Identifier) []evidence.Identifier {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]evidence.Identifier, 0, len(a)+len(b))
	for _, id := range append(append([]evidence.Identifier{}, a...), b...) {
		key := string(id.Kind) + "\x00" + id.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// resolveOperator picks the single winning operator match: highest weight,
// ties broken by registration order. Matches arrive in registration order, so
// a strict greater-than keeps the earlier operator on ties.
func resolveOperator(matches []evidence.OperatorMatch) (evidence.OperatorMatch, bool) {
	if len(matches) == 0 {
		return evidence.OperatorMatch{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Weight > best.Weight {
			best = m
		}
	}
	return best, true
}

func labelRequirementMet(r *Rule, matched []string) bool {
	if r.LabelMode == LabelAll {
		return len(matched) == len(r.Labels)
	}
	return len(matched) > 0
}

// preferSevenDigitFleet orders 7-digit fleet numbers (the postal fleet
// convention) ahead of shorter fleet candidates, leaving everything else in
// first-occurrence order.
func preferSevenDigitFleet(ids []evidence.Identifier) []evidence.Identifier {
	sort.SliceStable(ids, func(i, j int) bool {
		return fleetRank(ids[i]) < fleetRank(ids[j])
	})
	return ids
}

func fleetRank(id evidence.Identifier) int {
	if id.Kind == evidence.KindFleet && len(id.Value) == 7 {
		return 0
	}
	return 1
}

// category returns the leading segment of a colon-hierarchical type.
func category(typ string) string {
	if i := strings.IndexByte(typ, ':'); i >= 0 {
		return typ[:i]
	}
	return typ
}

// operatorCompatible reports whether entities of this type may carry an
// operator. Vehicles and containers may; infrastructure and unknown types
// never do.
func operatorCompatible(typ string) bool {
	switch category(typ) {
	case "vehicle", "cargo_container":
		return true
	}
	return false
}

// kindCompatible reports whether an identifier kind may attach to an entity
// of the given type.
func kindCompatible(kind evidence.IdentifierKind, typ string) bool {
	switch kind {
	case evidence.KindContainerID:
		return category(typ) == "cargo_container"
	case evidence.KindFleet, evidence.KindLicensePlate, evidence.KindTailID:
		return category(typ) == "vehicle"
	case evidence.KindOtherID:
		return operatorCompatible(typ)
	}
	return false
}

// impliedType is the entity type synthesized for an identifier that no fired
// rule could take.
func impliedType(kind evidence.IdentifierKind) string {
	switch kind {
	case evidence.KindContainerID:
		return "cargo_container"
	case evidence.KindTailID:
		return "vehicle:aircraft"
	case evidence.KindFleet, evidence.KindLicensePlate:
		return "vehicle"
	}
	return "unknown"
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var typeDescriptions = map[string]string{
	"vehicle:postal_delivery":     "Postal delivery vehicle",
	"vehicle:commercial_delivery": "Commercial delivery vehicle",
	"vehicle:emergency":           "Emergency vehicle",
	"vehicle:aircraft":            "Aircraft",
	"vehicle":                     "Vehicle",
	"cargo_container":             "Shipping container",
	"infrastructure:warehouse":    "Warehouse",
	"unknown":                     "Unidentified subject",
}

// describe renders the human-readable entity summary carried in properties.
func describe(typ string, ids []evidence.Identifier) string {
	base, ok := typeDescriptions[typ]
	if !ok {
		seg := typ
		if i := strings.LastIndexByte(typ, ':'); i >= 0 {
			seg = typ[i+1:]
		}
		base = strings.ReplaceAll(seg, "_", " ")
	}
	if len(ids) == 0 {
		return base
	}
	vals := make([]string, len(ids))
	for i, id := range ids {
		vals[i] = id.Value
	}
	if len(vals) == 1 {
		return base + " with identifier " + vals[0]
	}
	return base + " with identifiers " + strings.Join(vals, ", ")
}
