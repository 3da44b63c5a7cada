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

import "fmt"

// Package schema defines the canonical trip record schema and the static
// cleaning configuration.
//
// The schema is built once at process start and read-only afterwards: field
// order here is the output column order, regardless of how input objects
// order their keys.

// Type is the canonical output type of a field.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
)

// Class selects which cleaning rule applies to a field.
type Class int

const (
	// ClassIdentifier is a mandatory identifying string; a missing or empty
	// value quarantines the record.
	ClassIdentifier Class = iota
	// ClassCode is a short code (plate, driver id): trimmed and lowercased,
	// missing becomes the not-available label.
	ClassCode
	// ClassDate is a calendar date kept in canonical YYYY-MM-DD form.
	ClassDate
	// ClassClock is a time of day kept as an HH:MM string; also feeds the
	// derived metrics.
	ClassClock
	// ClassProperNoun is a proper-noun text field (city, service type):
	// trimmed and title-cased, missing becomes the not-available label.
	ClassProperNoun
	// ClassOptionalText is free text passed through after trimming; missing
	// becomes the not-available label.
	ClassOptionalText
	// ClassBrandText is free-form brand/model text normalized to the single
	// configured casing convention.
	ClassBrandText
	// ClassCategory is a closed categorical field mapped through the alias
	// table; unrecognized input becomes the unknown label.
	ClassCategory
	// ClassCount is a non-negative integer accepting numeral words; null or
	// unparseable input defaults to zero.
	ClassCount
	// ClassDecimal is a strict non-negative float tolerating comma decimal
	// separators; unparseable, negative, or non-finite input quarantines the
	// record.
	ClassDecimal
	// ClassMoney is a cost float: null becomes zero, comma decimals accepted.
	ClassMoney
	// ClassScore is an integer clamped to the configured range from above;
	// below-range or unparseable input quarantines the record.
	ClassScore
	// ClassFlag is a boolean accepting common truthy/falsy spellings;
	// unrecognized input defaults to false.
	ClassFlag
)

// Field describes one canonical input field.
type Field struct {
	Name      string
	Type      Type
	Class     Class
	Mandatory bool
}

// Canonical input field names, matching the raw feed.
const (
	FieldTripID              = "id_viaje"
	FieldTripDate            = "fecha_viaje"
	FieldScheduledDeparture  = "hora_salida_programada"
	FieldActualArrival       = "hora_llegada_real"
	FieldOriginCity          = "origen_ciudad"
	FieldDestinationCity     = "destino_ciudad"
	FieldCountry             = "pais_operacion"
	FieldPassengerCount      = "numero_viajeros"
	FieldDistanceKM          = "distancia_km"
	FieldTravelTimeMinutes   = "tiempo_viaje_minutos"
	FieldAverageFareEUR      = "tarifa_media_por_viajero_eur"
	FieldBusBrand            = "marca_autocar"
	FieldBusModel            = "modelo_autocar"
	FieldPlateNumber         = "matricula_autocar"
	FieldServiceType         = "tipo_servicio"
	FieldIncidentFlag        = "incidencia_averia"
	FieldIncidentDescription = "descripcion_averia"
	FieldIncidentCostEUR     = "costo_averia_eur"
	FieldSatisfactionScore   = "puntuacion_cliente"
	FieldFuelConsumedLiters  = "combustible_consumido_litros"
	FieldDriverID            = "id_conductor"
	FieldDriverAge           = "edad_conductor"
)

// Derived column names, appended after the input fields in output order.
const (
	ColDelayMinutes = "retraso_minutos"
	ColAverageSpeed = "velocidad_media_kmh"
)

// Schema is the immutable canonical schema: ordered fields plus a name index.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a Schema from an ordered field list.
// Returns an error on duplicate field names.
func New(fields []Field) (*Schema, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := index[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		index[f.Name] = i
	}
	return &Schema{fields: append([]Field(nil), fields...), index: index}, nil
}

// Fields returns the input fields in canonical order.
func (s *Schema) Fields() []Field { return s.fields }

// Field looks up an input field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of input fields.
func (s *Schema) Len() int { return len(s.fields) }

// InputColumns returns the input column names in canonical order.
func (s *Schema) InputColumns() []string {
	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		cols[i] = f.Name
	}
	return cols
}

// Columns returns the full output column order: input fields followed by the
// derived metric columns.
func (s *Schema) Columns() []string {
	return append(s.InputColumns(), ColDelayMinutes, ColAverageSpeed)
}

// TripSchema returns the canonical transportation trip schema. The field
// order matches the destination warehouse table definition.
func TripSchema() *Schema {
	s, err := New([]Field{
		{Name: FieldTripID, Type: TypeString, Class: ClassIdentifier, Mandatory: true},
		{Name: FieldTripDate, Type: TypeString, Class: ClassDate},
		{Name: FieldScheduledDeparture, Type: TypeString, Class: ClassClock},
		{Name: FieldActualArrival, Type: TypeString, Class: ClassClock},
		{Name: FieldOriginCity, Type: TypeString, Class: ClassProperNoun},
		{Name: FieldDestinationCity, Type: TypeString, Class: ClassProperNoun},
		{Name: FieldCountry, Type: TypeString, Class: ClassCategory},
		{Name: FieldPassengerCount, Type: TypeInt, Class: ClassCount},
		{Name: FieldDistanceKM, Type: TypeFloat, Class: ClassDecimal},
		{Name: FieldTravelTimeMinutes, Type: TypeInt, Class: ClassCount},
		{Name: FieldAverageFareEUR, Type: TypeFloat, Class: ClassDecimal},
		{Name: FieldBusBrand, Type: TypeString, Class: ClassBrandText},
		{Name: FieldBusModel, Type: TypeString, Class: ClassBrandText},
		{Name: FieldPlateNumber, Type: TypeString, Class: ClassCode},
		{Name: FieldServiceType, Type: TypeString, Class: ClassProperNoun},
		{Name: FieldIncidentFlag, Type: TypeBool, Class: ClassFlag},
		{Name: FieldIncidentDescription, Type: TypeString, Class: ClassOptionalText},
		{Name: FieldIncidentCostEUR, Type: TypeFloat, Class: ClassMoney},
		{Name: FieldSatisfactionScore, Type: TypeInt, Class: ClassScore},
		{Name: FieldFuelConsumedLiters, Type: TypeFloat, Class: ClassDecimal},
		{Name: FieldDriverID, Type: TypeString, Class: ClassCode},
		{Name: FieldDriverAge, Type: TypeInt, Class: ClassCount},
	})
	if err != nil {
		// The canonical field list is a compile-time constant; a duplicate
		// here is a programming error.
		panic(err)
	}
	return s
}
