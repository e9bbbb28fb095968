// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package matchmaker

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// RoomCodes indexes the join code issued for each room, so that a socket
// joining a room can be checked against it. It is safe for concurrent use.
type RoomCodes struct {
	mu     deadlock.RWMutex
	byRoom map[string]Entry
	ttlMs  int64
}

func NewRoomCodes(ttl time.Duration) *RoomCodes {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RoomCodes{
		byRoom: make(map[string]Entry),
		ttlMs:  ttl.Milliseconds(),
	}
}

// Set records entry as the code of its room.
func (rc *RoomCodes) Set(entry Entry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.byRoom[entry.TargetID] = entry
}

// Get returns the live code of a room.
func (rc *RoomCodes) Get(roomID string, nowMs int64) (string, bool) {
	rc.mu.RLock()
	entry, ok := rc.byRoom[roomID]
	rc.mu.RUnlock()

	if !ok || nowMs-entry.CreatedAtMs >= rc.ttlMs {
		return "", false
	}
	return entry.Code, true
}

// Admit reports whether provided is the live join code of a room.
func (rc *RoomCodes) Admit(roomID, provided string, nowMs int64) bool {
	expected, ok := rc.Get(roomID, nowMs)
	if !ok {
		return false
	}
	code, ok := NormalizeCode(provided)
	return ok && code == expected
}

// Delete forgets the code of a room.
func (rc *RoomCodes) Delete(roomID string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.byRoom, roomID)
}

// CleanupExpired forgets expired codes and returns how many were forgotten.
func (rc *RoomCodes) CleanupExpired(nowMs int64) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	n := 0
	for roomID, entry := range rc.byRoom {
		if nowMs-entry.CreatedAtMs >= rc.ttlMs {
			delete(rc.byRoom, roomID)
			n++
		}
	}
	return n
}
