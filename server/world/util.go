// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"github.com/chewxy/math32"
)

func clamp(val, minimum, maximum float32) float32 {
	return math32.Min(math32.Max(val, minimum), maximum)
}

// finite replaces NaN and infinities with zero.
func finite(val float32) float32 {
	if math32.IsNaN(val) || math32.IsInf(val, 0) {
		return 0
	}
	return val
}
