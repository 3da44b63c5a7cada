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

// Package quarantine defines the closed set of hard-failure reasons that
// route a record out of the accepted output, and the report row carried for
// each rejected record.
//
// Soft issues (defaulted nulls, categories mapped to the unknown label) are
// not quarantine reasons; they surface only through the output values.
package quarantine

import "github.com/mrgdevelops/ETL-pipeline/schema"

// Reason is a hard-failure reason. The set is closed: field rules can only
// fail a record in one of these ways.
type Reason int

const (
	// ReasonInvalidNumericField marks an unparseable, negative, or
	// non-finite distance/rate value.
	ReasonInvalidNumericField Reason = iota + 1
	// ReasonScoreOutOfRange marks a satisfaction score below the clamp range
	// or unparseable; clamping applies only above the range.
	ReasonScoreOutOfRange
	// ReasonMissingMandatoryField marks a structurally missing identifying
	// field.
	ReasonMissingMandatoryField
)

// String returns the stable snake_case reason code used in reports.
func (r Reason) String() string {
	switch r {
	case ReasonInvalidNumericField:
		return "invalid_numeric_field"
	case ReasonScoreOutOfRange:
		return "score_out_of_range"
	case ReasonMissingMandatoryField:
		return "missing_mandatory_field"
	default:
		return "unknown"
	}
}

// Record is one quarantined record: its position in the input batch, the
// field and reason that rejected it, and the field values normalized before
// the failure was detected. Fields whose rules failed are absent from
// Partial.
type Record struct {
	Index   int
	Field   string
	Reason  Reason
	Partial schema.Record
}
