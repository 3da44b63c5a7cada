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
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Casing selects the global casing convention for brand/model text.
type Casing string

const (
	// CasingTitle title-cases every word (default).
	CasingTitle Casing = "title"
	// CasingLower lowercases the whole value.
	CasingLower Casing = "lower"
)

// Config is the static cleaning configuration: alias tables, numeral words,
// clamp range, sentinel labels, and the casing convention. It is built once
// at startup and never mutated afterwards; pipeline workers share it
// read-only.
type Config struct {
	// CountryAliases maps lowercased spellings to canonical country labels.
	CountryAliases map[string]string `yaml:"country_aliases"`
	// UnknownLabel replaces unrecognized or missing categorical values.
	UnknownLabel string `yaml:"unknown_label"`
	// NotAvailable replaces missing optional text values.
	NotAvailable string `yaml:"not_available_label"`
	// NumeralWords maps lowercased number words to their integer value.
	NumeralWords map[string]int `yaml:"numeral_words"`
	// ScoreMin and ScoreMax bound the satisfaction score. Values above
	// ScoreMax clamp down; values below ScoreMin quarantine the record.
	// The range is 1-based: Validate rejects bounds below 1, and a zero
	// in a config file means "keep the default".
	ScoreMin int `yaml:"score_min"`
	ScoreMax int `yaml:"score_max"`
	// BrandCasing is the single casing convention applied to every
	// brand/model value in the batch.
	BrandCasing Casing `yaml:"brand_casing"`
	// TruthyWords and FalsyWords are the recognized flag spellings
	// (lowercased). Anything else defaults to false.
	TruthyWords []string `yaml:"truthy_words"`
	FalsyWords  []string `yaml:"falsy_words"`
	// ClockLayout is the reference layout for time-of-day fields.
	ClockLayout string `yaml:"clock_layout"`
	// DateLayout is the reference layout for date fields.
	DateLayout string `yaml:"date_layout"`
}

// DefaultConfig returns the built-in cleaning configuration for the bus trip
// feed.
func DefaultConfig() *Config {
	return &Config{
		CountryAliases: map[string]string{
			"españa":      "España",
			"espana":      "España",
			"es":          "España",
			"spain":       "España",
			"portugal":    "Portugal",
			"pt":          "Portugal",
			"marruecos":   "Marruecos",
			"mar":         "Marruecos",
			"morocco":     "Marruecos",
			"desconocido": "Unknown",
		},
		UnknownLabel: "Unknown",
		NotAvailable: "N/A",
		NumeralWords: map[string]int{
			"cero":      0,
			"diez":      10,
			"veinte":    20,
			"treinta":   30,
			"cuarenta":  40,
			"cincuenta": 50,
			"forty":     40,
		},
		ScoreMin:    1,
		ScoreMax:    5,
		BrandCasing: CasingTitle,
		TruthyWords: []string{"1", "true", "yes", "y", "si", "sí", "verdadero"},
		FalsyWords:  []string{"0", "false", "no", "n", "falso"},
		ClockLayout: "15:04",
		DateLayout:  "2006-01-02",
	}
}

// LoadConfig reads a YAML configuration file and merges it over the
// defaults. Only keys present in the file override; everything else keeps
// its default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg := DefaultConfig()
	cfg.merge(&override)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// merge overlays non-zero override values onto the receiver. Map
// entries extend the default tables rather than replacing them. A zero
// score bound is "unset": the clamp range is 1-based by construction
// (Validate rejects bounds below 1), so zero never names a real bound.
func (c *Config) merge(o *Config) {
	for k, v := range o.CountryAliases {
		c.CountryAliases[k] = v
	}
	if o.UnknownLabel != "" {
		c.UnknownLabel = o.UnknownLabel
	}
	if o.NotAvailable != "" {
		c.NotAvailable = o.NotAvailable
	}
	for k, v := range o.NumeralWords {
		c.NumeralWords[k] = v
	}
	if o.ScoreMin != 0 {
		c.ScoreMin = o.ScoreMin
	}
	if o.ScoreMax != 0 {
		c.ScoreMax = o.ScoreMax
	}
	if o.BrandCasing != "" {
		c.BrandCasing = o.BrandCasing
	}
	if len(o.TruthyWords) > 0 {
		c.TruthyWords = o.TruthyWords
	}
	if len(o.FalsyWords) > 0 {
		c.FalsyWords = o.FalsyWords
	}
	if o.ClockLayout != "" {
		c.ClockLayout = o.ClockLayout
	}
	if o.DateLayout != "" {
		c.DateLayout = o.DateLayout
	}
}

// normalize lowercases lookup keys so rule matching is case-insensitive.
func (c *Config) normalize() {
	aliases := make(map[string]string, len(c.CountryAliases))
	for k, v := range c.CountryAliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.CountryAliases = aliases

	words := make(map[string]int, len(c.NumeralWords))
	for k, v := range c.NumeralWords {
		words[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.NumeralWords = words
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.UnknownLabel == "" {
		return fmt.Errorf("unknown_label must not be empty")
	}
	if c.NotAvailable == "" {
		return fmt.Errorf("not_available_label must not be empty")
	}
	if c.ScoreMin < 1 {
		return fmt.Errorf("score_min must be at least 1, got %d", c.ScoreMin)
	}
	if c.ScoreMin > c.ScoreMax {
		return fmt.Errorf("score_min %d exceeds score_max %d", c.ScoreMin, c.ScoreMax)
	}
	switch c.BrandCasing {
	case CasingTitle, CasingLower:
	default:
		return fmt.Errorf("brand_casing must be %q or %q, got %q", CasingTitle, CasingLower, c.BrandCasing)
	}
	if c.ClockLayout == "" {
		return fmt.Errorf("clock_layout must not be empty")
	}
	if c.DateLayout == "" {
		return fmt.Errorf("date_layout must not be empty")
	}
	return nil
}

// IsTruthy reports whether the lowercased word is a recognized true spelling.
func (c *Config) IsTruthy(word string) bool {
	for _, w := range c.TruthyWords {
		if w == word {
			return true
		}
	}
	return false
}

// IsFalsy reports whether the lowercased word is a recognized false spelling.
func (c *Config) IsFalsy(word string) bool {
	for _, w := range c.FalsyWords {
		if w == word {
			return true
		}
	}
	return false
}
