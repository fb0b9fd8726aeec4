// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCERNER_RULES", "")
	t.Setenv("DISCERNER_OPERATORS", "")
	t.Setenv("DISCERNER_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.RulesPath)
	assert.Empty(t, cfg.OperatorsPath)
	assert.Equal(t, "image-discerner", cfg.Provider)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DISCERNER_RULES", "/etc/discerner/rules.yaml")
	t.Setenv("DISCERNER_OPERATORS", "/etc/discerner/operators.yaml")
	t.Setenv("DISCERNER_PROVIDER", "scout-backend")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/discerner/rules.yaml", cfg.RulesPath)
	assert.Equal(t, "/etc/discerner/operators.yaml", cfg.OperatorsPath)
	assert.Equal(t, "scout-backend", cfg.Provider)
}
