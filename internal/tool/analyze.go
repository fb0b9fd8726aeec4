// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/beaucronin/image-discerner/internal/evidence"
	"github.com/beaucronin/image-discerner/internal/inference"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataAnalyzeScene describes the analyze_scene tool.
var MetadataAnalyzeScene = &mcp.Tool{
	Name: "analyze_scene",
	Description: "Fuse an image's classification labels and extracted OCR text into " +
		"identified entities (vehicles, containers, infrastructure). Each entity carries " +
		"a hierarchical type, an optional operator, normalized structured identifiers " +
		"(fleet numbers, license plates, container IDs, tail numbers), and a confidence " +
		"score. Empty evidence is valid and yields an empty entity list.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"labels": map[string]interface{}{
				"type":        "array",
				"description": "Visual classification labels with detector confidences.",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"label"},
					"properties": map[string]interface{}{
						"label":      map[string]interface{}{"type": "string"},
						"confidence": map[string]interface{}{"type": "number"},
					},
				},
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Raw extracted (OCR) text for the image; may be empty or contain newlines.",
			},
			"image_key": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifying key of the analyzed image, echoed in processing metadata.",
			},
		},
	},
}

// MetadataListPatterns describes the list_patterns tool.
var MetadataListPatterns = &mcp.Tool{
	Name: "list_patterns",
	Description: "List the loaded pattern library: rule names, proposed entity types, " +
		"visual-label requirements, and base confidences. Rules are read-only and loaded " +
		"once at process start.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

// InputAnalyzeScene is the input for the AnalyzeScene tool.
type InputAnalyzeScene struct {
	Labels   []evidence.VisualLabel `json:"labels"`
	Text     string                 `json:"text"`
	ImageKey string                 `json:"image_key"`
}

// OutputAnalyzeScene is the output for the AnalyzeScene tool.
type OutputAnalyzeScene struct {
	Entities           []inference.Entity `json:"entities"`
	ProcessingMetadata inference.Metadata `json:"processing_metadata"`
}

// InputListPatterns is the (empty) input for the ListPatterns tool.
type InputListPatterns struct{}

// OutputListPatterns is the output for the ListPatterns tool.
type OutputListPatterns struct {
	Patterns []PatternSummary `json:"patterns"`
}

// PatternSummary is one rule of the library, rendered for inspection.
type PatternSummary struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Labels         []string `json:"labels"`
	LabelMode      string   `json:"label_mode"`
	TextPatterns   []string `json:"text_patterns,omitempty"`
	BaseConfidence float64  `json:"base_confidence"`
}

// Analyzer binds the MCP tools to a configured fusion engine.
type Analyzer struct {
	fuser    *inference.Fuser
	library  *inference.Library
	provider string
}

// NewAnalyzer creates an Analyzer over the given library and operator table.
func NewAnalyzer(lib *inference.Library, operators []evidence.OperatorDef, provider string) *Analyzer {
	return &Analyzer{
		fuser:    inference.NewFuser(lib, operators),
		library:  lib,
		provider: provider,
	}
}

// AnalyzeScene runs one fusion pass over the provided evidence. Per-request
// evidence never errors: empty or unrecognizable input degrades to an empty
// entity list.
func (a *Analyzer) AnalyzeScene(_ context.Context, _ *mcp.CallToolRequest, input InputAnalyzeScene) (*mcp.CallToolResult, OutputAnalyzeScene, error) {
	bundle := evidence.Bundle{
		Labels: input.Labels,
		Text:   input.Text,
		Image:  evidence.ImageMeta{Key: input.ImageKey},
	}
	entities := inference.FormatEntities(a.fuser.Fuse(bundle))
	resp := inference.NewResponse(entities, input.ImageKey, a.provider)

	return nil, OutputAnalyzeScene{
		Entities:           resp.Entities,
		ProcessingMetadata: resp.ProcessingMetadata,
	}, nil
}

// ListPatterns reports the loaded rule set for explainability.
func (a *Analyzer) ListPatterns(_ context.Context, _ *mcp.CallToolRequest, _ InputListPatterns) (*mcp.CallToolResult, OutputListPatterns, error) {
	rules := a.library.Rules()
	out := OutputListPatterns{Patterns: make([]PatternSummary, 0, len(rules))}
	for _, r := range rules {
		out.Patterns = append(out.Patterns, PatternSummary{
			Name:           r.Name,
			Type:           r.Type,
			Labels:         r.Labels,
			LabelMode:      string(r.LabelMode),
			TextPatterns:   r.TextPatterns,
			BaseConfidence: r.BaseConfidence,
		})
	}
	return nil, out, nil
}
