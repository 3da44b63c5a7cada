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

package etl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/readers"
	"github.com/mrgdevelops/ETL-pipeline/schema"
	"github.com/mrgdevelops/ETL-pipeline/writers"
)

const cleanBatch = `[
	{
		"id_viaje": "V-1001",
		"fecha_viaje": "2024-03-15",
		"hora_salida_programada": "08:30",
		"hora_llegada_real": "09:45",
		"origen_ciudad": "madrid",
		"destino_ciudad": "toledo",
		"pais_operacion": "espana",
		"numero_viajeros": 35,
		"distancia_km": "72,5",
		"tiempo_viaje_minutos": 65,
		"tarifa_media_por_viajero_eur": 12.5,
		"marca_autocar": "mercedes",
		"modelo_autocar": "tourismo",
		"matricula_autocar": "1234-ABC",
		"tipo_servicio": "regular",
		"incidencia_averia": false,
		"descripcion_averia": null,
		"costo_averia_eur": null,
		"puntuacion_cliente": 4,
		"combustible_consumido_litros": "40,2",
		"id_conductor": "D-77",
		"edad_conductor": 45
	}
]`

type nopCloser struct {
	*strings.Builder
}

func (nopCloser) Close() error { return nil }

func buildPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline().WithWorkers(4).Build()
	require.NoError(t, err)
	return p
}

// runBatch executes one batch against in-memory CSV sinks and returns the
// trip CSV, the quarantine CSV, and the result.
func runBatch(t *testing.T, p *Pipeline, payload string) (string, string, Result) {
	t.Helper()

	tripBuf := nopCloser{&strings.Builder{}}
	quarBuf := nopCloser{&strings.Builder{}}

	tripSink, err := writers.NewTripWriter(tripBuf, schema.TripSchema())
	require.NoError(t, err)
	quarSink, err := writers.NewReportWriter(quarBuf, schema.TripSchema())
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), strings.NewReader(payload), tripSink, quarSink)
	require.NoError(t, err)
	require.NoError(t, tripSink.Close())
	require.NoError(t, quarSink.Close())

	return tripBuf.String(), quarBuf.String(), res
}

func TestPipelineCleanBatch(t *testing.T) {
	p := buildPipeline(t)
	trips, quar, res := runBatch(t, p, cleanBatch)

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 0, res.Quarantined)

	lines := strings.Split(strings.TrimRight(trips, "\n"), "\n")
	require.Len(t, lines, 2)

	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	cells := make(map[string]string, len(header))
	for i, col := range header {
		cells[col] = row[i]
	}

	assert.Equal(t, "V-1001", cells[schema.FieldTripID])
	assert.Equal(t, "Madrid", cells[schema.FieldOriginCity])
	assert.Equal(t, "España", cells[schema.FieldCountry])
	assert.Equal(t, "72.5", cells[schema.FieldDistanceKM])
	// 09:45 - 08:30 = 75 minutes gross, minus 65 expected.
	assert.Equal(t, "10", cells[schema.ColDelayMinutes])
	// 72.5 km in 65 minutes.
	assert.Equal(t, "66.92307692307692", cells[schema.ColAverageSpeed])

	quarLines := strings.Split(strings.TrimRight(quar, "\n"), "\n")
	assert.Len(t, quarLines, 1)
}

func TestPipelineIdempotent(t *testing.T) {
	p := buildPipeline(t)

	batch := `[
		{"id_viaje": "V-1", "distancia_km": 10, "tiempo_viaje_minutos": 20,
		 "hora_salida_programada": "10:00", "hora_llegada_real": "10:30",
		 "puntuacion_cliente": 3},
		{"id_viaje": "V-2", "pais_operacion": "pt", "puntuacion_cliente": 5},
		{"id_viaje": "V-3", "distancia_km": "bad", "puntuacion_cliente": 2},
		{"id_viaje": "V-4", "puntuacion_cliente": 9}
	]`

	trips1, quar1, _ := runBatch(t, p, batch)
	trips2, quar2, _ := runBatch(t, p, batch)
	assert.Equal(t, trips1, trips2)
	assert.Equal(t, quar1, quar2)
}

func TestPipelineQuarantineRouting(t *testing.T) {
	p := buildPipeline(t)

	batch := `[
		{"id_viaje": "V-1", "puntuacion_cliente": 3},
		{"id_viaje": "V-2", "distancia_km": "far", "puntuacion_cliente": 3},
		{"puntuacion_cliente": 3},
		{"id_viaje": "V-4", "puntuacion_cliente": 0},
		{"id_viaje": "V-5", "puntuacion_cliente": 3}
	]`

	trips, quar, res := runBatch(t, p, batch)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 3, res.Quarantined)

	tripLines := strings.Split(strings.TrimRight(trips, "\n"), "\n")
	require.Len(t, tripLines, 3)
	assert.Contains(t, tripLines[1], "V-1,")
	assert.Contains(t, tripLines[2], "V-5,")

	quarLines := strings.Split(strings.TrimRight(quar, "\n"), "\n")
	require.Len(t, quarLines, 4)
	// Quarantine rows preserve input order and carry their reason codes.
	assert.True(t, strings.HasPrefix(quarLines[1], "1,distancia_km,invalid_numeric_field,"))
	assert.True(t, strings.HasPrefix(quarLines[2], "2,id_viaje,missing_mandatory_field,"))
	assert.True(t, strings.HasPrefix(quarLines[3], "3,puntuacion_cliente,score_out_of_range,"))
}

func TestPipelineScoreClampHighAccepted(t *testing.T) {
	p := buildPipeline(t)

	batch := `[{"id_viaje": "V-1", "puntuacion_cliente": 9}]`
	trips, _, res := runBatch(t, p, batch)

	assert.Equal(t, 1, res.Accepted)
	lines := strings.Split(strings.TrimRight(trips, "\n"), "\n")
	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	cells := make(map[string]string, len(header))
	for i, col := range header {
		cells[col] = row[i]
	}
	assert.Equal(t, "5", cells[schema.FieldSatisfactionScore])
}

func TestPipelineUnknownCountryAccepted(t *testing.T) {
	p := buildPipeline(t)

	batch := `[{"id_viaje": "V-1", "pais_operacion": "francia", "puntuacion_cliente": 3}]`
	trips, _, res := runBatch(t, p, batch)

	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 0, res.Quarantined)
	assert.Contains(t, trips, "Unknown")
}

func TestPipelineEmptyBatch(t *testing.T) {
	p := buildPipeline(t)

	trips, quar, res := runBatch(t, p, `[]`)
	assert.Equal(t, 0, res.Total)

	// Header-only outputs.
	assert.Len(t, strings.Split(strings.TrimRight(trips, "\n"), "\n"), 1)
	assert.Len(t, strings.Split(strings.TrimRight(quar, "\n"), "\n"), 1)
}

func TestPipelineMalformedBatchFatal(t *testing.T) {
	p := buildPipeline(t)

	tripBuf := nopCloser{&strings.Builder{}}
	quarBuf := nopCloser{&strings.Builder{}}
	tripSink, err := writers.NewTripWriter(tripBuf, schema.TripSchema())
	require.NoError(t, err)
	quarSink, err := writers.NewReportWriter(quarBuf, schema.TripSchema())
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), strings.NewReader(`{"id_viaje": "V-1"}`), tripSink, quarSink)
	require.Error(t, err)

	var merr *readers.MalformedInputError
	assert.ErrorAs(t, err, &merr)

	// Nothing but the headers was written.
	require.NoError(t, tripSink.Close())
	require.NoError(t, quarSink.Close())
	assert.Len(t, strings.Split(strings.TrimRight(tripBuf.String(), "\n"), "\n"), 1)
	assert.Len(t, strings.Split(strings.TrimRight(quarBuf.String(), "\n"), "\n"), 1)
}

func TestPipelineRunPreservesOrderAcrossWorkers(t *testing.T) {
	p := buildPipeline(t)

	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 200; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id_viaje": "V-`)
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString(`", "puntuacion_cliente": 3}`)
	}
	sb.WriteString("]")

	raws, err := readers.ParseBatch(strings.NewReader(sb.String()))
	require.NoError(t, err)

	accepted, rejected, err := p.Run(context.Background(), raws)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, accepted, 200)
	for i, rec := range accepted {
		assert.Equal(t, "V-"+strings.Repeat("x", i%7), rec[schema.FieldTripID])
	}
}

func TestPipelineRunQuarantineIndexes(t *testing.T) {
	p := buildPipeline(t)

	raws, err := readers.ParseBatch(strings.NewReader(`[
		{"id_viaje": "V-0", "puntuacion_cliente": 3},
		{"id_viaje": "V-1"},
		{"id_viaje": "V-2", "puntuacion_cliente": 3}
	]`))
	require.NoError(t, err)

	accepted, rejected, err := p.Run(context.Background(), raws)
	require.NoError(t, err)
	assert.Len(t, accepted, 2)
	require.Len(t, rejected, 1)
	// The quarantine index points at the input position, not the output row.
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, quarantine.ReasonScoreOutOfRange, rejected[0].Reason)
	assert.Equal(t, "V-1", rejected[0].Partial[schema.FieldTripID])
}
