// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

func TestAppendLog(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "catches.csv")

	if err := AppendLog(filename, []interface{}{int64(5), "room,1", 1.234, float32(2)}); err != nil {
		t.Fatal(err)
	}
	if err := AppendLog(filename, []interface{}{6, "room-2", 0.0, "x"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"5", "room,1", "1.23", "2.00"},
		{"6", "room-2", "0.00", "x"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), records)
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("row %d: expected %v, got %v", i, want[i], records[i])
				break
			}
		}
	}
}

func TestHub_LogCatch(t *testing.T) {
	h, clock := newTestHub(t)
	filename := filepath.Join(t.TempDir(), "catches.csv")
	h.catchLog = newCatchLogger(filename)

	a := join(h, "a", "Reece")
	startMatch(t, h, clock, a)
	h.players["a"].Boat = world.BoatCanoe

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_lake_01"})
	h.tick()
	send(h, a, CatchClick{Envelope: envelope(), OfferID: h.players["a"].OfferID})
	h.catchLog.Close()

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || len(records[0]) != 11 {
		t.Fatalf("expected one row of 11 fields, got %v", records)
	}
	row := records[0]
	if row[1] != h.ID || row[2] != "12345" || row[3] != "a" || row[4] != "Reece" || row[5] != "1" || row[6] != "hs_lake_01" {
		t.Errorf("unexpected row %v", row)
	}
	if result := sentOf[CatchResult](a); len(result) != 1 || row[7] != result[0].FishID {
		t.Errorf("expected logged fish to match %+v, got %v", result, row)
	}
}

func TestHub_LogCatchDoesNotWait(t *testing.T) {
	h, clock := newTestHub(t)
	release := make(chan struct{})
	written := make(chan []interface{}, 1)
	h.catchLog = startCatchLogger(func(fields []interface{}) error {
		<-release
		written <- fields
		return nil
	})

	a := join(h, "a", "Reece")
	startMatch(t, h, clock, a)
	h.players["a"].Boat = world.BoatCanoe

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_lake_01"})
	h.tick()

	handled := make(chan struct{})
	go func() {
		send(h, a, CatchClick{Envelope: envelope(), OfferID: h.players["a"].OfferID})
		close(handled)
	}()

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("catch handling waited on the log writer")
	}
	if result := sentOf[CatchResult](a); len(result) != 1 || !result[0].Success {
		t.Fatalf("expected a catch result, got %+v", result)
	}

	close(release)
	h.catchLog.Close()
	if fields := <-written; fields[6] != "hs_lake_01" {
		t.Errorf("unexpected row %v", fields)
	}
}

func TestCatchLogger_Full(t *testing.T) {
	release := make(chan struct{})
	l := startCatchLogger(func([]interface{}) error {
		<-release
		return nil
	})

	// One row may be held by the writer, the rest fill the queue.
	dropped := 0
	for i := 0; i < catchLogBuffer+2; i++ {
		if !l.Append([]interface{}{i}) {
			dropped++
		}
	}
	if dropped == 0 {
		t.Error("expected rows to be dropped once the queue is full")
	}

	close(release)
	l.Close()
}
