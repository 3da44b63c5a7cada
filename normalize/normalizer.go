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

package normalize

import (
	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// Normalizer applies the per-class cleaning rules to raw records against a
// fixed schema and configuration. It holds no mutable state and is safe for
// concurrent use.
type Normalizer struct {
	schema *schema.Schema
	cfg    *schema.Config
}

// NewNormalizer creates a Normalizer for the given schema and configuration.
func NewNormalizer(s *schema.Schema, cfg *schema.Config) *Normalizer {
	return &Normalizer{schema: s, cfg: cfg}
}

// Apply cleans one raw record. Fields are processed in schema order so that
// when several fields fail, the reported failure is deterministic: the first
// failing field in schema order wins.
//
// On failure the returned record holds the fields that cleaned successfully.
// The failing field itself is omitted.
func (n *Normalizer) Apply(raw schema.RawRecord) (schema.Record, *FieldError) {
	rec := make(schema.Record, n.schema.Len())
	var firstErr *FieldError
	for _, f := range n.schema.Fields() {
		v, ok := raw[f.Name]
		if !ok {
			v = schema.AbsentValue()
		}
		out, ferr := ruleFor(f.Class)(v, n.cfg)
		if ferr != nil {
			ferr.Field = f.Name
			if firstErr == nil {
				firstErr = ferr
			}
			continue
		}
		rec[f.Name] = out
	}
	if firstErr != nil {
		return rec, firstErr
	}
	return rec, nil
}
