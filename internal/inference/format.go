// SPDX-License-Identifier: Apache-2.0

package inference

import (
	"math"

	"github.com/google/uuid"
)

// FormatVersion tags the wire format emitted in processing metadata.
const FormatVersion = "1.0"

// Entity is the wire-level entity record.
type Entity struct {
	Type        string         `json:"type"`
	Operator    *string        `json:"operator"`
	Identifiers []string       `json:"identifiers"`
	Confidence  float64        `json:"confidence"`
	Properties  map[string]any `json:"properties"`
}

// Metadata is the processing_metadata object of the response envelope.
type Metadata struct {
	FormatVersion string `json:"format_version"`
	AnalysisID    string `json:"analysis_id"`
	ImageKey      string `json:"image_key,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// Response is the top-level wire envelope.
type Response struct {
	Entities           []Entity `json:"entities"`
	ProcessingMetadata Metadata `json:"processing_metadata"`
}

// FormatEntities renders fused candidates into wire-level entity records:
// identifiers as kind[:jurisdiction]:value strings in assignment order,
// confidence clamped to two decimal places.
func FormatEntities(cands []Candidate) []Entity {
	out := make([]Entity, 0, len(cands))
	for _, c := range cands {
		idStrings := make([]string, 0, len(c.Identifiers))
		for _, id := range c.Identifiers {
			idStrings = append(idStrings, id.String())
		}
		props := map[string]any{
			"description": c.Description,
		}
		if len(c.Evidence) > 0 {
			props["evidence"] = append([]string{}, c.Evidence...)
		}
		var op *string
		if c.Operator != "" {
			name := c.Operator
			op = &name
		}
		out = append(out, Entity{
			Type:        c.Type,
			Operator:    op,
			Identifiers: idStrings,
			Confidence:  c.Confidence,
			Properties:  props,
		})
	}
	return NormalizeEntities(out)
}

// NormalizeEntities enforces wire invariants on an entity list: confidence in
// [0,1] rounded to two decimals, identifier lists deduplicated
// order-preserving, properties never nil. Normalizing an already-normalized
// list is a no-op, so formatted output is round-trip stable.
func NormalizeEntities(entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		e.Confidence = roundConfidence(clamp01(e.Confidence))
		e.Identifiers = dedupeStrings(e.Identifiers)
		if e.Properties == nil {
			e.Properties = map[string]any{}
		}
		out[i] = e
	}
	return out
}

// NewResponse wraps formatted entities in the versioned envelope, stamping a
// fresh analysis id.
func NewResponse(entities []Entity, imageKey, provider string) Response {
	return Response{
		Entities: entities,
		ProcessingMetadata: Metadata{
			FormatVersion: FormatVersion,
			AnalysisID:    uuid.NewString(),
			ImageKey:      imageKey,
			Provider:      provider,
		},
	}
}

func roundConfidence(v float64) float64 {
	return math.Round(v*100) / 100
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
