// SPDX-License-Identifier: Apache-2.0

package evidence_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaucronin/image-discerner/internal/evidence"
)

func TestDetectOperators(t *testing.T) {
	defs := evidence.DefaultOperators()

	tests := []struct {
		name   string
		text   string
		labels []evidence.VisualLabel
		want   []string // operator names, in registration order
	}{
		{
			name: "brand domain in text",
			text: "Visit usps.com for tracking",
			want: []string{"USPS"},
		},
		{
			name: "case-insensitive substring containment",
			text: "FEDEX GROUND",
			want: []string{"FedEx"},
		},
		{
			name:   "label trigger independent of text",
			labels: []evidence.VisualLabel{{Label: "police_car", Confidence: 0.9}},
			want:   []string{"Police"},
		},
		{
			name: "multiple operators all returned",
			text: "maersk and evergreen markings",
			want: []string{"Maersk", "Evergreen"},
		},
		{
			name: "container owner prefix implies carrier",
			text: "MSCU7654321",
			want: []string{"MSC"},
		},
		{
			name: "no trigger no match",
			text: "an unmarked gray van",
			want: nil,
		},
		{
			name: "empty evidence",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := evidence.DetectOperators(tt.text, tt.labels, defs)
			names := make([]string, 0, len(matches))
			for _, m := range matches {
				names = append(names, m.Operator)
			}
			if tt.want == nil {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestDetectOperators_StrongestTriggerWins(t *testing.T) {
	defs := evidence.DefaultOperators()

	// Both "usps.com" (1.0) and "usps" (0.9) are contained; the match must
	// carry the strongest trigger.
	matches := evidence.DetectOperators("usps.com", nil, defs)
	require.Len(t, matches, 1)
	assert.Equal(t, "USPS", matches[0].Operator)
	assert.Equal(t, "usps.com", matches[0].Trigger)
	assert.Equal(t, 1.0, matches[0].Weight)
}

func TestDetectOperators_OrderReflectsRegistration(t *testing.T) {
	defs := evidence.DefaultOperators()

	matches := evidence.DetectOperators("maersk cosco", nil, defs)
	require.Len(t, matches, 2)
	assert.Equal(t, "Maersk", matches[0].Operator)
	assert.Equal(t, "COSCO", matches[1].Operator)
	assert.Less(t, matches[0].Order, matches[1].Order)
}

// ---------------------------------------------------------------------------
// LoadOperators
// ---------------------------------------------------------------------------

func TestLoadOperators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operators.yaml")
	content := `
- name: Acme Logistics
  triggers:
    - token: acme
      weight: 0.9
    - token: acme_truck
      weight: 0.8
      label: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	defs, err := evidence.LoadOperators(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Acme Logistics", defs[0].Name)
	require.Len(t, defs[0].Triggers, 2)
	assert.True(t, defs[0].Triggers[1].Label)

	matches := evidence.DetectOperators("ACME fleet services", nil, defs)
	require.Len(t, matches, 1)
	assert.Equal(t, "Acme Logistics", matches[0].Operator)
}

func TestLoadOperators_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "empty operator name",
			content:     "- name: \"\"\n  triggers:\n    - token: x\n      weight: 0.5\n",
			errContains: "empty name",
		},
		{
			name:        "duplicate operator",
			content:     "- name: A\n  triggers:\n    - token: x\n      weight: 0.5\n- name: A\n  triggers:\n    - token: y\n      weight: 0.5\n",
			errContains: "duplicate",
		},
		{
			name:        "no triggers",
			content:     "- name: A\n  triggers: []\n",
			errContains: "no triggers",
		},
		{
			name:        "weight out of range",
			content:     "- name: A\n  triggers:\n    - token: x\n      weight: 1.5\n",
			errContains: "out of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "operators.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := evidence.LoadOperators(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadOperators_MissingFile(t *testing.T) {
	_, err := evidence.LoadOperators(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
