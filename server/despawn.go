// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/stalcup-dev/riverboat-tournament/server/identity"
)

// Despawn removes players that have been disconnected for longer than the
// grace period, and marks the room for disposal once it has stayed empty
// for as long.
func (h *Hub) Despawn(nowMs int64) {
	expired := identity.Expired(h.claimants(), nowMs, identity.DisconnectGrace)

	for _, sessionID := range expired {
		if player := h.players[sessionID]; player != nil {
			player.Reset()
		}
		delete(h.players, sessionID)
		delete(h.runtimes, sessionID)
		delete(h.rtt, sessionID)
		delete(h.lastPing, sessionID)
		delete(h.lastWaterError, sessionID)
		h.limiter.Forget(sessionID)
	}

	if len(expired) > 0 {
		h.logf("cleanup_disconnected removed=%d", len(expired))
	}

	if len(h.players) == 0 {
		h.phase.HostSessionID = ""
	}

	if h.clients.Len > 0 || len(h.players) > 0 {
		h.emptySinceMs = -1
		return
	}

	if h.emptySinceMs < 0 {
		h.emptySinceMs = nowMs
	} else if nowMs-h.emptySinceMs >= identity.DisconnectGrace.Milliseconds() {
		h.disposed = true
	}
}
