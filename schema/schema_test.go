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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripSchemaShape(t *testing.T) {
	s := TripSchema()
	assert.Equal(t, 22, s.Len())

	// Column order is input fields followed by the derived metrics.
	cols := s.Columns()
	require.Len(t, cols, 24)
	assert.Equal(t, FieldTripID, cols[0])
	assert.Equal(t, ColDelayMinutes, cols[22])
	assert.Equal(t, ColAverageSpeed, cols[23])

	inputs := s.InputColumns()
	assert.Equal(t, cols[:22], inputs)
}

func TestTripSchemaFieldLookup(t *testing.T) {
	s := TripSchema()

	f, ok := s.Field(FieldTripID)
	require.True(t, ok)
	assert.Equal(t, ClassIdentifier, f.Class)
	assert.True(t, f.Mandatory)

	f, ok = s.Field(FieldSatisfactionScore)
	require.True(t, ok)
	assert.Equal(t, ClassScore, f.Class)
	assert.Equal(t, TypeInt, f.Type)

	_, ok = s.Field("no_such_field")
	assert.False(t, ok)
}

func TestNewRejectsDuplicateFields(t *testing.T) {
	_, err := New([]Field{
		{Name: "a", Type: TypeString, Class: ClassOptionalText},
		{Name: "a", Type: TypeString, Class: ClassOptionalText},
	})
	require.Error(t, err)
}

func TestValueKinds(t *testing.T) {
	assert.True(t, AbsentValue().IsMissing())
	assert.True(t, NullValue().IsMissing())
	assert.False(t, StringValue("").IsMissing())

	v := FromJSON(nil)
	assert.Equal(t, KindNull, v.Kind())

	v = FromJSON("madrid")
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "madrid", v.Str())

	v = FromJSON(true)
	assert.Equal(t, KindBool, v.Kind())
	assert.True(t, v.Bool())

	// Containers have no field semantics and coerce to null.
	v = FromJSON(map[string]any{"x": 1})
	assert.Equal(t, KindNull, v.Kind())
}
