//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of ETL-Pipeline.
//
// ETL-Pipeline is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ETL-Pipeline is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ETL-Pipeline. If not, see https://www.gnu.org/licenses/.

package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Unknown", cfg.UnknownLabel)
	assert.Equal(t, "N/A", cfg.NotAvailable)
	assert.Equal(t, 1, cfg.ScoreMin)
	assert.Equal(t, 5, cfg.ScoreMax)
	assert.Equal(t, CasingTitle, cfg.BrandCasing)
	assert.Equal(t, "España", cfg.CountryAliases["espana"])
	assert.Equal(t, 40, cfg.NumeralWords["cuarenta"])
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaning.yaml")
	payload := []byte(`
unknown_label: Desconocido
score_max: 10
brand_casing: lower
country_aliases:
  FRANCIA: Francia
`)
	require.NoError(t, os.WriteFile(path, payload, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, "Desconocido", cfg.UnknownLabel)
	assert.Equal(t, 10, cfg.ScoreMax)
	assert.Equal(t, CasingLower, cfg.BrandCasing)

	// Alias keys are matched case-insensitively.
	assert.Equal(t, "Francia", cfg.CountryAliases["francia"])

	// Untouched defaults survive.
	assert.Equal(t, "N/A", cfg.NotAvailable)
	assert.Equal(t, 1, cfg.ScoreMin)
	assert.Equal(t, "España", cfg.CountryAliases["espana"])
}

// The clamp range is 1-based by construction, so a zero score bound in a
// file means "keep the default" rather than a bound of zero.
func TestLoadConfigZeroScoreBoundKeepsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaning.yaml")
	payload := []byte(`
score_min: 0
score_max: 0
`)
	require.NoError(t, os.WriteFile(path, payload, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ScoreMin)
	assert.Equal(t, 5, cfg.ScoreMax)
}

func TestLoadConfigBadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("score_min: [not a number"), 0644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreMin = 6
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ScoreMin = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BrandCasing = Casing("shouting")
	require.Error(t, cfg.Validate())
}

func TestTruthyFalsyWords(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsTruthy("sí"))
	assert.True(t, cfg.IsTruthy("yes"))
	assert.True(t, cfg.IsFalsy("falso"))
	assert.False(t, cfg.IsTruthy("maybe"))
	assert.False(t, cfg.IsFalsy("maybe"))
}
