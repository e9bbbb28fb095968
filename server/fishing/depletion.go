// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

const DepletionMs = 30_000

// Depletion tracks when each hotspot can be fished again. The zero value is
// not usable, call NewDepletion.
type Depletion struct {
	untilMs    map[string]int64
	durationMs int64
}

func NewDepletion(durationMs int64) *Depletion {
	if durationMs <= 0 {
		durationMs = DepletionMs
	}
	return &Depletion{
		untilMs:    make(map[string]int64),
		durationMs: durationMs,
	}
}

// Mark depletes a hotspot and returns when it recovers.
func (d *Depletion) Mark(hotspotID string, nowMs int64) int64 {
	until := nowMs + d.durationMs
	d.untilMs[hotspotID] = until
	return until
}

// RetryAfter is how long until a hotspot recovers, or 0 if it is not depleted.
func (d *Depletion) RetryAfter(hotspotID string, nowMs int64) int64 {
	until, ok := d.untilMs[hotspotID]
	if !ok || nowMs >= until {
		return 0
	}
	return until - nowMs
}

// Clear forgets hotspots that have recovered.
func (d *Depletion) Clear(nowMs int64) {
	for id, until := range d.untilMs {
		if nowMs >= until {
			delete(d.untilMs, id)
		}
	}
}
