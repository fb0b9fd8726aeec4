// SPDX-License-Identifier: Apache-2.0

// Package inference is the evidence fusion engine: a declarative pattern
// library evaluated against a scene's combined evidence, a fuser that
// resolves rule matches into entities, and a formatter that renders the wire
// schema. The engine is pure and stateless; the rule and operator tables are
// loaded once at process start and read-only thereafter.
package inference

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// LabelMode selects the semantics of a rule's visual-label requirement.
type LabelMode string

const (
	// LabelAny fires when at least one of the rule's labels is present.
	LabelAny LabelMode = "any"
	// LabelAll fires only when every one of the rule's labels is present.
	LabelAll LabelMode = "all"
)

// Rule is one declarative pattern: a visual-label requirement, an optional
// text requirement, and the entity type it proposes when both are satisfied.
// Rules are read-only once loaded; evaluation never mutates them.
type Rule struct {
	Name           string    `yaml:"name"`
	Type           string    `yaml:"type"`
	Labels         []string  `yaml:"labels"`
	LabelMode      LabelMode `yaml:"label_mode"`
	TextPatterns   []string  `yaml:"text_patterns"`
	BaseConfidence float64   `yaml:"base_confidence"`
	// Operators lists the canonical operator names consistent with this
	// rule's type, for the operator corroboration bonus.
	Operators    []string `yaml:"operators"`
	EvidenceTags []string `yaml:"evidence_tags"`

	compiled []*regexp.Regexp
}

// Library is a validated, compiled set of pattern rules in evaluation order.
type Library struct {
	rules []Rule
}

// NewLibrary validates and compiles a rule set. Any malformed rule is fatal:
// the engine must not serve with a corrupt library.
func NewLibrary(rules []Rule) (*Library, error) {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		r := &rules[i]
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: empty name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %q: duplicate name", r.Name)
		}
		seen[r.Name] = true
		if r.Type == "" {
			return nil, fmt.Errorf("rule %q: empty type", r.Name)
		}
		if len(r.Labels) == 0 {
			return nil, fmt.Errorf("rule %q: no visual-label requirement", r.Name)
		}
		if r.LabelMode == "" {
			r.LabelMode = LabelAny
		}
		if r.LabelMode != LabelAny && r.LabelMode != LabelAll {
			return nil, fmt.Errorf("rule %q: unknown label mode %q", r.Name, r.LabelMode)
		}
		if r.BaseConfidence < 0 || r.BaseConfidence > 1 {
			return nil, fmt.Errorf("rule %q: base confidence %v out of [0,1]", r.Name, r.BaseConfidence)
		}
		r.compiled = make([]*regexp.Regexp, 0, len(r.TextPatterns))
		for _, p := range r.TextPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %q: text pattern %q: %w", r.Name, p, err)
			}
			r.compiled = append(r.compiled, re)
		}
	}
	return &Library{rules: rules}, nil
}

// LoadLibrary reads a rule set from a YAML file, replacing the built-in
// library.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule library: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rule library: %w", err)
	}
	return NewLibrary(rules)
}

// Rules returns the library's rules in evaluation order.
func (l *Library) Rules() []Rule {
	return l.rules
}

// Len returns the number of rules in the library.
func (l *Library) Len() int {
	return len(l.rules)
}

// minRequiredLabels is the size of the rule's minimum visual requirement,
// used when counting extra corroborating labels.
func (r *Rule) minRequiredLabels() int {
	if r.LabelMode == LabelAll {
		return len(r.Labels)
	}
	return 1
}

// matchedLabels returns the distinct bundle label tokens that satisfy the
// rule's label set, in bundle order.
func (r *Rule) matchedLabels(labels []string) []string {
	want := make(map[string]bool, len(r.Labels))
	for _, l := range r.Labels {
		want[strings.ToLower(l)] = true
	}
	seen := make(map[string]bool, len(labels))
	var matched []string
	for _, l := range labels {
		key := strings.ToLower(l)
		if want[key] && !seen[key] {
			seen[key] = true
			matched = append(matched, key)
		}
	}
	return matched
}

// matchedPatterns returns the rule's text patterns satisfied by the
// lower-cased text.
func (r *Rule) matchedPatterns(lowerText string) []string {
	var matched []string
	for i, re := range r.compiled {
		if re.MatchString(lowerText) {
			matched = append(matched, r.TextPatterns[i])
		}
	}
	return matched
}

// consistentWithOperator reports whether the named operator belongs to the
// rule's operator family.
func (r *Rule) consistentWithOperator(name string) bool {
	for _, o := range r.Operators {
		if o == name {
			return true
		}
	}
	return false
}

// DefaultLibrary returns the built-in pattern library. Base confidences
// reflect how discriminating each pattern's evidence is; container patterns
// rank highest because the identifier format alone is near-conclusive.
func DefaultLibrary() *Library {
	lib, err := NewLibrary([]Rule{
		{
			Name:   "postal_delivery",
			Type:   "vehicle:postal_delivery",
			Labels: []string{"van", "truck", "car", "mail_truck"},
			TextPatterns: []string{
				`usps\.com`,
				`\b\d{7}\b`, // 7-digit postal fleet numbers
				`\bpriority\b`,
				`\bexpress\b`,
				`\bmail\b`,
			},
			BaseConfidence: 0.80,
			Operators:      []string{"USPS"},
			EvidenceTags:   []string{"postal_livery"},
		},
		{
			Name:   "commercial_delivery",
			Type:   "vehicle:commercial_delivery",
			Labels: []string{"truck", "van", "delivery_truck"},
			TextPatterns: []string{
				`\bfedex\b`,
				`\bups\b`,
				`\bamazon\b`,
				`\bdhl\b`,
				`\d{4}-\d{4}`, // common commercial fleet pattern
				`\bdelivery\b`,
			},
			BaseConfidence: 0.70,
			Operators:      []string{"UPS", "FedEx", "Amazon", "DHL"},
			EvidenceTags:   []string{"commercial_livery"},
		},
		{
			Name:   "shipping_container",
			Type:   "cargo_container",
			Labels: []string{"container", "shipping_container", "truck"},
			TextPatterns: []string{
				`\b[a-z]{3}[ujz]\s?\d{6}\s?\d\b`, // ISO 6346 container ID
				`\bmaersk\b`,
				`\bevergreen\b`,
				`\bcosco\b`,
				`\bmsc\b`,
			},
			BaseConfidence: 0.90,
			Operators:      []string{"Maersk", "MSC", "Evergreen", "COSCO"},
			EvidenceTags:   []string{"iso_container_markings"},
		},
		{
			Name:   "emergency_vehicle",
			Type:   "vehicle:emergency",
			Labels: []string{"car", "truck", "van", "police_car", "ambulance", "fire_truck"},
			TextPatterns: []string{
				`\bpolice\b`,
				`\bfire\b`,
				`\bambulance\b`,
				`\bems\b`,
				`\bsheriff\b`,
			},
			BaseConfidence: 0.85,
			Operators:      []string{"Police", "Fire"},
			EvidenceTags:   []string{"emergency_markings"},
		},
		{
			Name:           "aircraft",
			Type:           "vehicle:aircraft",
			Labels:         []string{"airplane", "aircraft", "helicopter"},
			BaseConfidence: 0.75,
			EvidenceTags:   []string{"airframe"},
		},
		{
			Name:           "warehouse",
			Type:           "infrastructure:warehouse",
			Labels:         []string{"warehouse"},
			BaseConfidence: 0.70,
			EvidenceTags:   []string{"industrial_structure"},
		},
	})
	if err != nil {
		// The built-in library is validated by tests; a failure here is a
		// programming error, not runtime input.
		panic(err)
	}
	return lib
}
