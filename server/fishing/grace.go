// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

import (
	"math"
)

const (
	DefaultGraceMs = 150
	MinGraceMs     = 120
	MaxGraceMs     = 250

	// PingIntervalMs is the minimum time between processed pings of a session.
	PingIntervalMs = 500
	MaxRTTMs       = 2000
)

// GraceMs is the extra time a catch click is accepted after an offer expires.
// A negative rtt means no sample.
func GraceMs(rtt float64) int64 {
	if rtt < 0 || math.IsNaN(rtt) || math.IsInf(rtt, 0) {
		return DefaultGraceMs
	}
	grace := int64(math.Floor(math.Max(MinGraceMs, 0.35*rtt) + 0.5))
	return min(max(grace, MinGraceMs), MaxGraceMs)
}

// SmoothRTT folds an observed rtt into an estimate. ok is false if the
// sample is out of range. A negative prev means no previous estimate.
func SmoothRTT(prev, sample float64) (rtt float64, ok bool) {
	if math.IsNaN(sample) || sample < 0 || sample > MaxRTTMs {
		return prev, false
	}
	if prev < 0 {
		return sample, true
	}
	return 0.7*prev + 0.3*sample, true
}
