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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// Package normalize implements the per-field cleaning rules.
//
// Every rule is a pure function from a tagged raw value and the static
// configuration to either a canonical typed value or a quarantine signal.
// Rules never panic and never return nil without a FieldError: every input
// shape has a defined fallback.

// FieldError is a hard per-field failure. It routes the whole record to the
// quarantine report; it never escalates past the record boundary.
type FieldError struct {
	Field  string
	Reason quarantine.Reason
	Value  string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %q)", e.Field, e.Reason, e.Value)
}

// Rule cleans one raw field value.
type Rule func(v schema.Value, cfg *schema.Config) (any, *FieldError)

// ruleFor returns the cleaning rule for a field class.
func ruleFor(class schema.Class) Rule {
	switch class {
	case schema.ClassIdentifier:
		return identifier
	case schema.ClassCode:
		return code
	case schema.ClassDate:
		return date
	case schema.ClassClock:
		return clock
	case schema.ClassProperNoun:
		return properNoun
	case schema.ClassOptionalText:
		return optionalText
	case schema.ClassBrandText:
		return brandText
	case schema.ClassCategory:
		return category
	case schema.ClassCount:
		return count
	case schema.ClassDecimal:
		return decimal
	case schema.ClassMoney:
		return money
	case schema.ClassScore:
		return score
	case schema.ClassFlag:
		return flag
	default:
		return optionalText
	}
}

// identifier requires a non-empty string (numeric tokens are accepted and
// stringified). Anything else is a missing mandatory field.
func identifier(v schema.Value, _ *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindString:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return nil, &FieldError{Reason: quarantine.ReasonMissingMandatoryField}
		}
		return s, nil
	case schema.KindNumber:
		return v.Num().String(), nil
	default:
		return nil, &FieldError{Reason: quarantine.ReasonMissingMandatoryField, Value: v.Display()}
	}
}

// code trims and lowercases short code fields; missing becomes the
// not-available label.
func code(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindString:
		s := strings.ToLower(strings.TrimSpace(v.Str()))
		if s == "" {
			return cfg.NotAvailable, nil
		}
		return s, nil
	case schema.KindNumber:
		return strings.ToLower(v.Num().String()), nil
	default:
		return cfg.NotAvailable, nil
	}
}

// date canonicalizes calendar dates to the configured layout. Timestamps are
// truncated to their date part; anything unparseable passes through trimmed,
// and missing becomes the empty string.
func date(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	if v.Kind() != schema.KindString {
		return "", nil
	}
	s := strings.TrimSpace(v.Str())
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(cfg.DateLayout, s); err == nil {
		return t.Format(cfg.DateLayout), nil
	}
	if len(s) > len(cfg.DateLayout) {
		if t, err := time.Parse(cfg.DateLayout, s[:len(cfg.DateLayout)]); err == nil {
			return t.Format(cfg.DateLayout), nil
		}
	}
	return s, nil
}

// clock keeps time-of-day strings as-is after trimming. Validation happens
// again in the derive stage, where an unusable clock only voids the derived
// metric, not the record.
func clock(v schema.Value, _ *schema.Config) (any, *FieldError) {
	if v.Kind() != schema.KindString {
		return "", nil
	}
	return strings.TrimSpace(v.Str()), nil
}

// properNoun trims and title-cases city/service names; missing becomes the
// not-available label.
func properNoun(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindString:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return cfg.NotAvailable, nil
		}
		return titleCase(s), nil
	case schema.KindNumber, schema.KindBool:
		return v.Display(), nil
	default:
		return cfg.NotAvailable, nil
	}
}

// optionalText passes free text through after trimming; missing becomes the
// not-available label.
func optionalText(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindString:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return cfg.NotAvailable, nil
		}
		return s, nil
	case schema.KindNumber, schema.KindBool:
		return v.Display(), nil
	default:
		return cfg.NotAvailable, nil
	}
}

// brandText applies the single configured casing convention to brand/model
// text; missing becomes the not-available label.
func brandText(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindString:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return cfg.NotAvailable, nil
		}
		if cfg.BrandCasing == schema.CasingLower {
			return strings.ToLower(s), nil
		}
		return titleCase(s), nil
	case schema.KindNumber, schema.KindBool:
		return v.Display(), nil
	default:
		return cfg.NotAvailable, nil
	}
}

// category maps categorical text through the alias table, case-insensitively.
// Unrecognized or missing input becomes the unknown label; the record stays
// accepted.
func category(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	if v.Kind() != schema.KindString {
		return cfg.UnknownLabel, nil
	}
	key := strings.ToLower(strings.TrimSpace(v.Str()))
	if key == "" {
		return cfg.UnknownLabel, nil
	}
	if canonical, ok := cfg.CountryAliases[key]; ok {
		return canonical, nil
	}
	return cfg.UnknownLabel, nil
}

// count accepts non-negative integers and numeral words; null, negative, or
// unparseable input defaults to zero.
func count(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindNumber:
		if i, err := v.Num().Int64(); err == nil {
			if i < 0 {
				return 0, nil
			}
			return int(i), nil
		}
		if f, err := v.Num().Float64(); err == nil && f >= 0 {
			return int(f), nil
		}
		return 0, nil
	case schema.KindString:
		s := strings.ToLower(strings.TrimSpace(v.Str()))
		if n, ok := cfg.NumeralWords[s]; ok && n >= 0 {
			return n, nil
		}
		if i, err := strconv.Atoi(s); err == nil && i >= 0 {
			return i, nil
		}
		return 0, nil
	default:
		return 0, nil
	}
}

// decimal parses strict non-negative floats, tolerating a comma decimal
// separator. Null defaults to zero; unparseable, negative, or non-finite
// input quarantines the record.
func decimal(v schema.Value, _ *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindAbsent, schema.KindNull:
		return 0.0, nil
	case schema.KindNumber:
		f, err := v.Num().Float64()
		if err != nil {
			return nil, &FieldError{Reason: quarantine.ReasonInvalidNumericField, Value: v.Display()}
		}
		return checkFinite(f, v.Display())
	case schema.KindString:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str()), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &FieldError{Reason: quarantine.ReasonInvalidNumericField, Value: v.Str()}
		}
		return checkFinite(f, v.Str())
	default:
		return nil, &FieldError{Reason: quarantine.ReasonInvalidNumericField, Value: v.Display()}
	}
}

func checkFinite(f float64, raw string) (any, *FieldError) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &FieldError{Reason: quarantine.ReasonInvalidNumericField, Value: raw}
	}
	return f, nil
}

// money parses cost values with comma tolerance; null or unparseable input
// defaults to zero.
func money(v schema.Value, _ *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindNumber:
		if f, err := v.Num().Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
		return 0.0, nil
	case schema.KindString:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str()), ",", ".")
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
		return 0.0, nil
	default:
		return 0.0, nil
	}
}

// score parses the satisfaction score and clamps it into the configured
// range from above only. Null coerces to zero first, so a missing score
// lands below the range and quarantines like any other below-range value.
func score(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	n, ok := 0, false
	switch v.Kind() {
	case schema.KindAbsent, schema.KindNull:
		n, ok = 0, true
	case schema.KindNumber:
		if i, err := v.Num().Int64(); err == nil {
			n, ok = int(i), true
		} else if f, err := v.Num().Float64(); err == nil {
			n, ok = int(f), true
		}
	case schema.KindString:
		if i, err := strconv.Atoi(strings.TrimSpace(v.Str())); err == nil {
			n, ok = i, true
		}
	}
	if !ok {
		return nil, &FieldError{Reason: quarantine.ReasonScoreOutOfRange, Value: v.Display()}
	}
	if n > cfg.ScoreMax {
		return cfg.ScoreMax, nil
	}
	if n < cfg.ScoreMin {
		return nil, &FieldError{Reason: quarantine.ReasonScoreOutOfRange, Value: v.Display()}
	}
	return n, nil
}

// flag normalizes truthy/falsy representations to a strict boolean;
// unrecognized input defaults to false.
func flag(v schema.Value, cfg *schema.Config) (any, *FieldError) {
	switch v.Kind() {
	case schema.KindBool:
		return v.Bool(), nil
	case schema.KindNumber:
		f, err := v.Num().Float64()
		return err == nil && f != 0, nil
	case schema.KindString:
		s := strings.ToLower(strings.TrimSpace(v.Str()))
		if cfg.IsTruthy(s) {
			return true, nil
		}
		if cfg.IsFalsy(s) {
			return false, nil
		}
		return false, nil
	default:
		return false, nil
	}
}

// titleCase title-cases every word using Spanish casing rules, matching the
// feed's locale.
func titleCase(s string) string {
	return cases.Title(language.Spanish).String(s)
}
