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
	"fmt"
	"strconv"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// encodeValue renders one record value as a CSV cell. The mapping is fixed
// so that equal inputs always produce byte-identical output: floats use the
// shortest round-trip form, booleans encode as 1/0, and invalid nullable
// values and nil encode as the empty string.
func encodeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case schema.NullInt:
		if !x.Valid {
			return ""
		}
		return strconv.Itoa(x.Int)
	case schema.NullFloat:
		if !x.Valid {
			return ""
		}
		return strconv.FormatFloat(x.Float, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
