// SPDX-License-Identifier: Apache-2.0

package inference_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaucronin/image-discerner/internal/inference"
)

func TestDefaultLibrary(t *testing.T) {
	lib := inference.DefaultLibrary()
	require.NotNil(t, lib)
	assert.Greater(t, lib.Len(), 0)

	names := make(map[string]bool)
	for _, r := range lib.Rules() {
		assert.False(t, names[r.Name], "duplicate rule %q", r.Name)
		names[r.Name] = true
		assert.NotEmpty(t, r.Type)
		assert.NotEmpty(t, r.Labels)
		assert.GreaterOrEqual(t, r.BaseConfidence, 0.0)
		assert.LessOrEqual(t, r.BaseConfidence, 1.0)
	}
}

func TestNewLibrary_Validation(t *testing.T) {
	valid := inference.Rule{
		Name:           "ok",
		Type:           "vehicle:test",
		Labels:         []string{"truck"},
		BaseConfidence: 0.5,
	}

	tests := []struct {
		name        string
		mutate      func(r *inference.Rule)
		errContains string
	}{
		{
			name:        "empty name",
			mutate:      func(r *inference.Rule) { r.Name = "" },
			errContains: "empty name",
		},
		{
			name:        "empty type",
			mutate:      func(r *inference.Rule) { r.Type = "" },
			errContains: "empty type",
		},
		{
			name:        "no labels",
			mutate:      func(r *inference.Rule) { r.Labels = nil },
			errContains: "visual-label requirement",
		},
		{
			name:        "unknown label mode",
			mutate:      func(r *inference.Rule) { r.LabelMode = "some" },
			errContains: "label mode",
		},
		{
			name:        "base confidence above one",
			mutate:      func(r *inference.Rule) { r.BaseConfidence = 1.2 },
			errContains: "out of [0,1]",
		},
		{
			name:        "base confidence negative",
			mutate:      func(r *inference.Rule) { r.BaseConfidence = -0.1 },
			errContains: "out of [0,1]",
		},
		{
			name:        "bad text pattern",
			mutate:      func(r *inference.Rule) { r.TextPatterns = []string{"[unclosed"} },
			errContains: "text pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			_, err := inference.NewLibrary([]inference.Rule{r})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestNewLibrary_DuplicateName(t *testing.T) {
	r := inference.Rule{Name: "dup", Type: "vehicle", Labels: []string{"truck"}, BaseConfidence: 0.5}
	_, err := inference.NewLibrary([]inference.Rule{r, r})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewLibrary_DefaultsLabelMode(t *testing.T) {
	lib, err := inference.NewLibrary([]inference.Rule{
		{Name: "r", Type: "vehicle", Labels: []string{"truck"}, BaseConfidence: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, inference.LabelAny, lib.Rules()[0].LabelMode)
}

func TestLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
- name: tanker_truck
  type: vehicle:tanker
  labels: [truck, tank]
  label_mode: all
  text_patterns: ['\bhazmat\b', '\bflammable\b']
  base_confidence: 0.65
  operators: [Acme]
  evidence_tags: [hazmat_placard]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lib, err := inference.LoadLibrary(path)
	require.NoError(t, err)
	require.Equal(t, 1, lib.Len())

	r := lib.Rules()[0]
	assert.Equal(t, "tanker_truck", r.Name)
	assert.Equal(t, "vehicle:tanker", r.Type)
	assert.Equal(t, inference.LabelAll, r.LabelMode)
	assert.Equal(t, 0.65, r.BaseConfidence)
	assert.Equal(t, []string{"Acme"}, r.Operators)
}

func TestLoadLibrary_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "- name: broken\n  type: vehicle\n  labels: [truck]\n  base_confidence: 2.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := inference.LoadLibrary(path)
	require.Error(t, err)
}

func TestLoadLibrary_MissingFile(t *testing.T) {
	_, err := inference.LoadLibrary(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
