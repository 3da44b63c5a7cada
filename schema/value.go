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
	"encoding/json"
	"strconv"
)

// Kind identifies the shape of a raw field value as it arrived in the input.
type Kind int

const (
	// KindAbsent means the field was not present in the input object.
	// The zero Value is absent, so indexing a RawRecord never needs a guard.
	KindAbsent Kind = iota
	// KindNull means the field was present with an explicit JSON null.
	KindNull
	// KindString is a JSON string value.
	KindString
	// KindNumber is a JSON number, carried verbatim as json.Number.
	KindNumber
	// KindBool is a JSON boolean value.
	KindBool
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a tagged variant over the loosely typed field values found in raw
// input records: absent, null, string, number, or boolean. Cleaning rules
// switch on Kind exhaustively instead of doing runtime type inspection.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
}

// AbsentValue returns the value for a field missing from the input object.
func AbsentValue() Value { return Value{kind: KindAbsent} }

// NullValue returns the value for an explicit null field.
func NullValue() Value { return Value{kind: KindNull} }

// StringValue wraps a raw string field.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a raw numeric field, preserving the original token.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// BoolValue wraps a raw boolean field.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports which variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is absent or null.
func (v Value) IsMissing() bool { return v.kind == KindAbsent || v.kind == KindNull }

// Str returns the string payload. Valid only for KindString.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload. Valid only for KindNumber.
func (v Value) Num() json.Number { return v.num }

// Bool returns the boolean payload. Valid only for KindBool.
func (v Value) Bool() bool { return v.b }

// Display renders the value the way it arrived, for quarantine reports and
// error messages. Absent and null render as the empty string.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// FromJSON converts a decoded JSON value (as produced by encoding/json with
// UseNumber) into a tagged Value. Nested arrays and objects have no place in
// the flat record model and are treated as null.
func FromJSON(x any) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case json.Number:
		return NumberValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		// Only reachable when the decoder was not configured with UseNumber.
		return NumberValue(json.Number(formatFloatToken(t)))
	default:
		return NullValue()
	}
}

func formatFloatToken(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RawRecord is one loosely typed input record: raw field name to tagged value.
// Indexing a missing key yields the zero Value, which is KindAbsent.
type RawRecord map[string]Value

// Record is a fully normalized record: every canonical field present with a
// value of its canonical Go type (string, int, float64, bool), plus the
// derived NullInt/NullFloat metrics once computed. No value is ever nil.
type Record map[string]any

// NullInt is an integer metric with an explicit not-computable sentinel.
type NullInt struct {
	Int   int
	Valid bool
}

// NullFloat is a float metric with an explicit not-computable sentinel.
type NullFloat struct {
	Float float64
	Valid bool
}
