// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Trigger is one token that implicates an operator. Text triggers match by
// case-insensitive substring containment against the raw OCR text; label
// triggers match visual labels exactly.
type Trigger struct {
	Token  string  `yaml:"token"`
	Weight float64 `yaml:"weight"`
	Label  bool    `yaml:"label,omitempty"`
}

// OperatorDef maps a canonical operator name to its trigger tokens. The
// table's order is significant: when two operators match with equal weight,
// the one registered first wins.
type OperatorDef struct {
	Name     string    `yaml:"name"`
	Triggers []Trigger `yaml:"triggers"`
}

// DefaultOperators returns the built-in operator trigger table. Trigger
// weights follow match specificity: brand domains 1.0, brand names 0.9,
// livery labels 0.8, generic service keywords lower.
func DefaultOperators() []OperatorDef {
	return []OperatorDef{
		{Name: "USPS", Triggers: []Trigger{
			{Token: "usps.com", Weight: 1.0},
			{Token: "usps", Weight: 0.9},
			{Token: "united states postal", Weight: 0.9},
			{Token: "priority mail", Weight: 0.6},
			{Token: "mail_truck", Weight: 0.8, Label: true},
		}},
		{Name: "UPS", Triggers: []Trigger{
			{Token: "ups.com", Weight: 1.0},
			{Token: "ups", Weight: 0.9},
		}},
		{Name: "FedEx", Triggers: []Trigger{
			{Token: "fedex.com", Weight: 1.0},
			{Token: "fedex", Weight: 0.9},
		}},
		{Name: "Amazon", Triggers: []Trigger{
			{Token: "amazon", Weight: 0.9},
			{Token: "prime", Weight: 0.6},
		}},
		{Name: "DHL", Triggers: []Trigger{
			{Token: "dhl", Weight: 0.9},
		}},
		{Name: "Maersk", Triggers: []Trigger{
			{Token: "maersk", Weight: 0.9},
		}},
		{Name: "MSC", Triggers: []Trigger{
			{Token: "msc", Weight: 0.8},
		}},
		{Name: "Evergreen", Triggers: []Trigger{
			{Token: "evergreen", Weight: 0.9},
		}},
		{Name: "COSCO", Triggers: []Trigger{
			{Token: "cosco", Weight: 0.9},
		}},
		{Name: "Police", Triggers: []Trigger{
			{Token: "police", Weight: 0.9},
			{Token: "sheriff", Weight: 0.8},
			{Token: "police_car", Weight: 0.8, Label: true},
		}},
		{Name: "Fire", Triggers: []Trigger{
			{Token: "fire department", Weight: 0.9},
			{Token: "fire dept", Weight: 0.8},
			{Token: "fire_truck", Weight: 0.8, Label: true},
		}},
	}
}

// LoadOperators reads an operator trigger table from a YAML file, replacing
// the built-in table. A malformed table is a load error; the process must not
// serve with a corrupt one.
func LoadOperators(path string) ([]OperatorDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operator table: %w", err)
	}
	var defs []OperatorDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse operator table: %w", err)
	}
	if err := validateOperators(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func validateOperators(defs []OperatorDef) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("operator with empty name")
		}
		if seen[d.Name] {
			return fmt.Errorf("operator %q: duplicate definition", d.Name)
		}
		seen[d.Name] = true
		if len(d.Triggers) == 0 {
			return fmt.Errorf("operator %q: no triggers", d.Name)
		}
		for _, t := range d.Triggers {
			if t.Token == "" {
				return fmt.Errorf("operator %q: trigger with empty token", d.Name)
			}
			if t.Weight <= 0 || t.Weight > 1 {
				return fmt.Errorf("operator %q: trigger %q weight %v out of (0,1]", d.Name, t.Token, t.Weight)
			}
		}
	}
	return nil
}

// DetectOperators returns every operator implicated by the bundle's text or
// labels, one match per operator carrying its strongest trigger. Resolving
// conflicting operators to a single winner is the fuser's job, not this
// function's. No match is not an error.
func DetectOperators(text string, labels []VisualLabel, defs []OperatorDef) []OperatorMatch {
	lower := strings.ToLower(text)

	var matches []OperatorMatch
	for order, def := range defs {
		best := OperatorMatch{Weight: -1}
		for _, t := range def.Triggers {
			var hit bool
			source := "text"
			if t.Label {
				source = "label"
				for _, l := range labels {
					if strings.EqualFold(l.Label, t.Token) {
						hit = true
						break
					}
				}
			} else {
				hit = strings.Contains(lower, strings.ToLower(t.Token))
			}
			if hit && t.Weight > best.Weight {
				best = OperatorMatch{
					Operator: def.Name,
					Trigger:  t.Token,
					Source:   source,
					Weight:   t.Weight,
					Order:    order,
				}
			}
		}
		if best.Weight > 0 {
			matches = append(matches, best)
		}
	}
	return matches
}
