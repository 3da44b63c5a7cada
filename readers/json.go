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

// Package readers parses trip batches from their transport encodings.
package readers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// MalformedInputError reports an input payload that is not a JSON array of
// objects. It fails the whole batch; no partial output is produced.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input batch: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// ParseBatch decodes a JSON array of trip objects into raw records, in
// input order. Numbers are kept as their source tokens so downstream rules
// decide how to interpret them. An empty array is a valid batch.
//
// An element that is not an object, or a payload that is not an array,
// returns a MalformedInputError.
func ParseBatch(r io.Reader) ([]schema.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload []map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	if dec.More() {
		return nil, &MalformedInputError{Err: fmt.Errorf("trailing data after batch array")}
	}

	records := make([]schema.RawRecord, len(payload))
	for i, obj := range payload {
		if obj == nil {
			return nil, &MalformedInputError{Err: fmt.Errorf("element %d is null, want object", i)}
		}
		rec := make(schema.RawRecord, len(obj))
		for k, v := range obj {
			rec[k] = schema.FromJSON(v)
		}
		records[i] = rec
	}
	return records, nil
}
