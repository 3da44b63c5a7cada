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

package writers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// Mock writer for testing
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	mu        sync.Mutex
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockWriteCloser) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Builder.String()
}

func (m *mockWriteCloser) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{
		Builder: &strings.Builder{},
	}
}

func transformedTrip() schema.Record {
	return schema.Record{
		schema.FieldTripID:              "V-1001",
		schema.FieldTripDate:            "2024-03-15",
		schema.FieldScheduledDeparture:  "08:30",
		schema.FieldActualArrival:       "09:45",
		schema.FieldOriginCity:          "Madrid",
		schema.FieldDestinationCity:     "Toledo",
		schema.FieldCountry:             "España",
		schema.FieldPassengerCount:      35,
		schema.FieldDistanceKM:          72.5,
		schema.FieldTravelTimeMinutes:   65,
		schema.FieldAverageFareEUR:      12.5,
		schema.FieldBusBrand:            "Mercedes",
		schema.FieldBusModel:            "Tourismo",
		schema.FieldPlateNumber:         "1234-abc",
		schema.FieldServiceType:         "Regular",
		schema.FieldIncidentFlag:        false,
		schema.FieldIncidentDescription: "N/A",
		schema.FieldIncidentCostEUR:     0.0,
		schema.FieldSatisfactionScore:   4,
		schema.FieldFuelConsumedLiters:  40.2,
		schema.FieldDriverID:            "d-77",
		schema.FieldDriverAge:           45,
		schema.ColDelayMinutes:          schema.NullInt{Int: 10, Valid: true},
		schema.ColAverageSpeed:          schema.NullFloat{Float: 66.92307692307692, Valid: true},
	}
}

func TestTripWriterHeaderOnly(t *testing.T) {
	mock := newMockWriteCloser()
	w, err := NewTripWriter(mock, schema.TripSchema())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(mock.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], schema.FieldTripID+","))
	assert.True(t, strings.HasSuffix(lines[0], schema.ColDelayMinutes+","+schema.ColAverageSpeed))
	assert.True(t, mock.IsClosed())
}

func TestTripWriterEncodesRow(t *testing.T) {
	mock := newMockWriteCloser()
	w, err := NewTripWriter(mock, schema.TripSchema())
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), transformedTrip()))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(mock.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	require.Len(t, row, len(header))

	cells := make(map[string]string, len(header))
	for i, col := range header {
		cells[col] = row[i]
	}
	assert.Equal(t, "V-1001", cells[schema.FieldTripID])
	assert.Equal(t, "35", cells[schema.FieldPassengerCount])
	assert.Equal(t, "72.5", cells[schema.FieldDistanceKM])
	assert.Equal(t, "0", cells[schema.FieldIncidentFlag])
	assert.Equal(t, "10", cells[schema.ColDelayMinutes])
	assert.Equal(t, "66.92307692307692", cells[schema.ColAverageSpeed])
}

func TestTripWriterInvalidMetricsEncodeEmpty(t *testing.T) {
	mock := newMockWriteCloser()
	w, err := NewTripWriter(mock, schema.TripSchema())
	require.NoError(t, err)

	rec := transformedTrip()
	rec[schema.ColDelayMinutes] = schema.NullInt{}
	rec[schema.ColAverageSpeed] = schema.NullFloat{}

	require.NoError(t, w.Write(context.Background(), rec))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(mock.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], ",,"))

	stats := w.Stats()
	assert.Equal(t, int64(1), stats.RecordsWritten)
	assert.Equal(t, int64(1), stats.EmptyCellCounts[schema.ColDelayMinutes])
	assert.Equal(t, int64(1), stats.EmptyCellCounts[schema.ColAverageSpeed])
}

func TestTripWriterDeterministicOutput(t *testing.T) {
	render := func() string {
		mock := newMockWriteCloser()
		w, err := NewTripWriter(mock, schema.TripSchema())
		require.NoError(t, err)
		require.NoError(t, w.Write(context.Background(), transformedTrip()))
		require.NoError(t, w.Close())
		return mock.String()
	}
	assert.Equal(t, render(), render())
}

func TestTripWriterBatching(t *testing.T) {
	mock := newMockWriteCloser()
	w, err := NewTripWriter(mock, schema.TripSchema(), WithTripBatchSize(2))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Write(ctx, transformedTrip()))
	}
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(mock.String(), "\n"), "\n")
	assert.Len(t, lines, 6)

	stats := w.Stats()
	assert.Equal(t, int64(5), stats.RecordsWritten)
	assert.GreaterOrEqual(t, stats.FlushCount, int64(2))
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Madrid", "Madrid"},
		{"int", 35, "35"},
		{"float shortest form", 72.5, "72.5"},
		{"float no trailing zeros", 12.0, "12"},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"valid null int", schema.NullInt{Int: 7, Valid: true}, "7"},
		{"invalid null int", schema.NullInt{}, ""},
		{"valid null float", schema.NullFloat{Float: 66.5, Valid: true}, "66.5"},
		{"invalid null float", schema.NullFloat{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

// Benchmark row emission through the batching writer.
func BenchmarkTripWriterWrite(b *testing.B) {
	mock := newMockWriteCloser()
	writer, err := NewTripWriter(mock, schema.TripSchema(),
		WithTripBatchSize(1000),
	)
	if err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	record := transformedTrip()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		record[schema.FieldPassengerCount] = i // Vary the data slightly
		if err := writer.Write(ctx, record); err != nil {
			b.Fatal(err)
		}
	}

	if err := writer.Close(); err != nil {
		b.Fatal(err)
	}
}

// Benchmark different batch sizes
func BenchmarkTripWriterBatchSizes(b *testing.B) {
	batchSizes := []int{1, 10, 100, 1000}

	for _, batchSize := range batchSizes {
		b.Run(fmt.Sprintf("batch_%d", batchSize), func(b *testing.B) {
			mock := newMockWriteCloser()
			writer, err := NewTripWriter(mock, schema.TripSchema(),
				WithTripBatchSize(batchSize),
			)
			if err != nil {
				b.Fatal(err)
			}

			ctx := context.Background()
			record := transformedTrip()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				record[schema.FieldPassengerCount] = i
				if err := writer.Write(ctx, record); err != nil {
					b.Fatal(err)
				}
			}

			if err := writer.Close(); err != nil {
				b.Fatal(err)
			}
		})
	}
}
