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

// Package derive computes per-record metrics from already normalized
// fields. Derived metrics are best-effort: when an input is unusable the
// metric is marked invalid and the record stays accepted.
package derive

import (
	"time"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

const minutesPerDay = 24 * 60

// DelayMinutes computes the arrival delay in whole minutes.
//
// The gross gap is actual arrival minus scheduled departure; a negative gap
// means the clock wrapped past midnight and gets a day added. Subtracting
// the expected travel time yields the delay, floored at zero so early
// arrivals report no delay. Unparseable clocks or a non-positive travel
// time yield an invalid result; a defaulted travel time of zero would
// otherwise misreport the whole clock gap as delay.
func DelayMinutes(scheduled, actual string, travelMinutes int, layout string) schema.NullInt {
	if travelMinutes <= 0 {
		return schema.NullInt{}
	}
	dep, err := time.Parse(layout, scheduled)
	if err != nil {
		return schema.NullInt{}
	}
	arr, err := time.Parse(layout, actual)
	if err != nil {
		return schema.NullInt{}
	}
	gap := int(arr.Sub(dep).Minutes())
	if gap < 0 {
		gap += minutesPerDay
	}
	delay := gap - travelMinutes
	if delay < 0 {
		delay = 0
	}
	return schema.NullInt{Int: delay, Valid: true}
}

// AverageSpeedKMH computes kilometers per hour from distance and travel
// time. A non-positive travel time makes the ratio meaningless, so the
// result is invalid rather than zero or infinite.
func AverageSpeedKMH(distanceKM float64, travelMinutes int) schema.NullFloat {
	if travelMinutes <= 0 {
		return schema.NullFloat{}
	}
	return schema.NullFloat{
		Float: distanceKM / (float64(travelMinutes) / 60.0),
		Valid: true,
	}
}

// Compute attaches both derived metrics to a normalized record in place.
func Compute(rec schema.Record, cfg *schema.Config) {
	travel, _ := rec[schema.FieldTravelTimeMinutes].(int)
	scheduled, _ := rec[schema.FieldScheduledDeparture].(string)
	actual, _ := rec[schema.FieldActualArrival].(string)
	rec[schema.ColDelayMinutes] = DelayMinutes(scheduled, actual, travel, cfg.ClockLayout)

	distance, _ := rec[schema.FieldDistanceKM].(float64)
	rec[schema.ColAverageSpeed] = AverageSpeedKMH(distance, travel)
}
