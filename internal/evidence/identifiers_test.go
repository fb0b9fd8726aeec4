// SPDX-License-Identifier: Apache-2.0

package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaucronin/image-discerner/internal/evidence"
)

func TestExtractIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string // rendered identifier strings, in order
	}{
		{
			name: "container id with internal whitespace is normalized",
			text: "MSKU 123456 7",
			want: []string{"container_id:MSKU1234567"},
		},
		{
			name: "container id lower case is upper cased",
			text: "msku1234567",
			want: []string{"container_id:MSKU1234567"},
		},
		{
			name: "seven digit fleet number",
			text: "UNIT 1234567",
			want: []string{"fleet:1234567"},
		},
		{
			name: "five digit fleet number",
			text: "FLEET 12345",
			want: []string{"fleet:12345"},
		},
		{
			name: "license plate without jurisdiction hint",
			text: "LICENSE ABC123",
			want: []string{"license_plate:unknown:ABC123"},
		},
		{
			name: "license plate with state name nearby",
			text: "CALIFORNIA ABC1234",
			want: []string{"license_plate:CA:ABC1234"},
		},
		{
			name: "license plate with state abbreviation nearby",
			text: "PLATE TX ABC123",
			want: []string{"license_plate:TX:ABC123"},
		},
		{
			name: "tail number",
			text: "REG N123AB",
			want: []string{"tail_id:N123AB"},
		},
		{
			name: "tail number lower case is upper cased",
			text: "n123ab",
			want: []string{"tail_id:N123AB"},
		},
		{
			name: "other id catches alphanumeric token",
			text: "VEHICLE ID VH-9876",
			want: []string{"other_id:9876"},
		},
		{
			name: "other id catches long mixed token",
			text: "UPS 1Z999AA1234567890",
			want: []string{"other_id:1Z999AA1234567890"},
		},
		{
			name: "plain words yield nothing",
			text: "PRIORITY MAIL EXPRESS",
			want: nil,
		},
		{
			name: "empty text yields nothing",
			text: "",
			want: nil,
		},
		{
			name: "digits inside a container id are not re-offered as fleet",
			text: "CONTAINER MSCU7654321",
			want: []string{"container_id:MSCU7654321"},
		},
		{
			name: "multiple identifiers keep first-occurrence order",
			text: "FLEET 12345 PLATE ABC123 MSKU 123456 7",
			want: []string{
				"fleet:12345",
				"license_plate:unknown:ABC123",
				"container_id:MSKU1234567",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := evidence.ExtractIdentifiers(tt.text)
			rendered := make([]string, 0, len(ids))
			for _, id := range ids {
				rendered = append(rendered, id.String())
			}
			if tt.want == nil {
				assert.Empty(t, rendered)
				return
			}
			assert.Equal(t, tt.want, rendered)
		})
	}
}

func TestExtractIdentifiers_NoDuplicateKindValue(t *testing.T) {
	ids := evidence.ExtractIdentifiers("1234567 again 1234567 and MSKU 123456 7 then MSKU1234567")

	seen := make(map[string]bool)
	for _, id := range ids {
		key := string(id.Kind) + ":" + id.Value
		require.False(t, seen[key], "duplicate identifier %s", key)
		seen[key] = true
	}
	assert.Len(t, ids, 2)
}

func TestExtractIdentifiers_PriorityConsumption(t *testing.T) {
	// The container span must not be re-offered to plate, fleet, or other_id
	// matchers even though its fragments fit their shapes.
	ids := evidence.ExtractIdentifiers("MSKU1234567")
	require.Len(t, ids, 1)
	assert.Equal(t, evidence.KindContainerID, ids[0].Kind)
}

func TestIdentifierString(t *testing.T) {
	assert.Equal(t, "fleet:1234567",
		evidence.Identifier{Kind: evidence.KindFleet, Value: "1234567"}.String())
	assert.Equal(t, "license_plate:CA:ABC123",
		evidence.Identifier{Kind: evidence.KindLicensePlate, Value: "ABC123", Jurisdiction: "CA"}.String())
}
