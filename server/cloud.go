// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"log"
	"time"

	"github.com/stalcup-dev/riverboat-tournament/server/match"
)

type (
	// Cloud is where a server registers itself and archives finished matches.
	// Methods may block on the network, so the hub calls them off its goroutine.
	Cloud interface {
		fmt.Stringer
		UpdateServer(rooms, players int) error
		ArchiveResults(record MatchRecord) error
		UpdatePeriod() time.Duration
	}

	// MatchRecord is the archived form of a finished match.
	MatchRecord struct {
		RoomID       string        `json:"room"`
		Name         string        `json:"name"`
		Seed         uint32        `json:"match_seed"`
		MatchStartMs int64         `json:"match_start_ms"`
		MatchEndMs   int64         `json:"match_end_ms"`
		Results      match.Results `json:"results"`
	}

	// Offline is the Cloud of a server that is not deployed. It does nothing.
	Offline struct{}
)

func (offline Offline) String() string {
	return "offline"
}

func (offline Offline) UpdateServer(rooms, players int) error {
	return nil
}

func (offline Offline) ArchiveResults(record MatchRecord) error {
	return nil
}

func (offline Offline) UpdatePeriod() time.Duration {
	return time.Hour
}

// archive hands finished results to the cloud without waiting.
func (h *Hub) archive(results match.Results) {
	record := MatchRecord{
		RoomID:       h.ID,
		Name:         h.name,
		Seed:         h.seed,
		MatchStartMs: h.phase.MatchStartMs,
		MatchEndMs:   h.phase.MatchEndMs,
		Results:      results,
	}

	c := h.cloud
	go func() {
		if err := c.ArchiveResults(record); err != nil {
			log.Printf("[WARN] [room:%s] archive results: %v", record.RoomID, err)
		}
	}()
}

// updateCloud reports the directory's load to the cloud.
func (d *Directory) updateCloud() {
	rooms, players := d.Load()

	c := d.cloud
	go func() {
		if err := c.UpdateServer(rooms, players); err != nil {
			log.Println("[WARN] update server:", err)
		}
	}()
}
