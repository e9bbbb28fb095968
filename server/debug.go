// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	goruntime "runtime"
	"strconv"
	"strings"
	"time"
)

// DebugPeriod is how often a hub logs its vitals.
const DebugPeriod = time.Minute

// funcBench is a benchmark of a core function.
type funcBench struct {
	name     string
	duration time.Duration
	runs     int
}

// reset resets the benchmark and returns the average duration
func (bench *funcBench) reset() time.Duration {
	if bench.runs == 0 {
		return 0
	}
	average := bench.duration / time.Duration(bench.runs)
	bench.duration = 0
	bench.runs = 0
	return average
}

// Debug logs the state of the hub and how long its core functions take.
func (h *Hub) Debug() {
	var stats goruntime.MemStats
	goruntime.ReadMemStats(&stats)

	connected := 0
	for _, player := range h.players {
		if player.Connected {
			connected++
		}
	}

	var builder strings.Builder
	for i := range h.funcBenches {
		bench := &h.funcBenches[i]
		runs := bench.runs
		builder.WriteByte(' ')
		builder.WriteString(bench.name)
		builder.WriteByte('=')
		builder.WriteString(bench.reset().String())
		builder.WriteByte('/')
		builder.WriteString(strconv.Itoa(runs))
	}

	h.logf("debug phase=%s clients=%d players=%d connected=%d heap=%dM/%dM%s",
		h.phase.Phase, h.clients.Len, len(h.players), connected, stats.HeapInuse/1e6, stats.NextGC/1e6, builder.String())
}

// timeFunction times a function.
// defer timeFunction("name", time.Now())
func (h *Hub) timeFunction(name string, start time.Time) {
	end := time.Now()

	var bench *funcBench
	for i := range h.funcBenches {
		b := &h.funcBenches[i]
		if name == b.name {
			bench = b
			break
		}
	}

	if bench == nil {
		h.funcBenches = append(h.funcBenches, funcBench{name: name})
		bench = &h.funcBenches[len(h.funcBenches)-1]
	}

	bench.duration += end.Sub(start)
	bench.runs++
}
