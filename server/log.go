// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
)

// AppendLog appends one CSV row to filename, creating it if necessary.
func AppendLog(filename string, fields []interface{}) (err error) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)

	fieldStrings := make([]string, 0, len(fields))
	for _, field := range fields {
		switch v := field.(type) {
		case float32, float64:
			fieldStrings = append(fieldStrings, fmt.Sprintf("%.2f", v))
		default:
			fieldStrings = append(fieldStrings, fmt.Sprint(v))
		}
	}

	if err = w.Write(fieldStrings); err != nil {
		return
	}

	w.Flush()
	// Error from flush
	return w.Error()
}

// catchLogBuffer is how many rows may wait for the disk before new ones are dropped.
const catchLogBuffer = 256

// catchLogger writes rows from its own goroutine, so a slow disk never stalls a hub.
type catchLogger struct {
	rows  chan []interface{}
	done  chan struct{}
	write func(fields []interface{}) error
}

// newCatchLogger appends rows to filename.
func newCatchLogger(filename string) *catchLogger {
	return startCatchLogger(func(fields []interface{}) error {
		return AppendLog(filename, fields)
	})
}

func startCatchLogger(write func(fields []interface{}) error) *catchLogger {
	l := &catchLogger{
		rows:  make(chan []interface{}, catchLogBuffer),
		done:  make(chan struct{}),
		write: write,
	}
	go l.run()
	return l
}

func (l *catchLogger) run() {
	defer close(l.done)
	for fields := range l.rows {
		if err := l.write(fields); err != nil {
			log.Printf("[WARN] catch log: %v", err)
		}
	}
}

// Append queues a row without waiting. It returns false if the row was dropped.
func (l *catchLogger) Append(fields []interface{}) bool {
	select {
	case l.rows <- fields:
		return true
	default:
		return false
	}
}

// Close writes the queued rows and stops the writer. Append must not be called after.
func (l *catchLogger) Close() {
	close(l.rows)
	<-l.done
}

// logCatch records enough of a catch to replay its resolution.
func (h *Hub) logCatch(player *Player, hotspotID string, outcome fishing.Outcome, nowMs int64) {
	if h.catchLog == nil {
		return
	}

	queued := h.catchLog.Append([]interface{}{
		nowMs,
		h.ID,
		h.seed,
		player.SessionID,
		player.Name,
		player.Seq,
		hotspotID,
		outcome.FishID,
		outcome.Weight,
		outcome.Length,
		outcome.PointsDelta,
	})
	if !queued {
		h.logf("catch_log dropped session_id=%s seq=%d", player.SessionID, player.Seq)
	}
}
