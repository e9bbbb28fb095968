// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"time"

	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
)

// tick advances the room by one simulation step.
func (h *Hub) tick() {
	defer h.timeFunction("tick", time.Now())
	nowMs := h.now()

	h.advanceCasts(nowMs)
	h.depletion.Clear(nowMs)
	h.advancePhase(nowMs)
	h.Despawn(nowMs)
	h.reemit(nowMs)
	h.Update(nowMs)
	h.updateSummary(nowMs)
}

// advanceCasts moves every connected player's cast along. Outside of a
// match all casts are dropped.
func (h *Hub) advanceCasts(nowMs int64) {
	clear(h.activity)

	if h.phase.Phase != match.PhaseMatch {
		for _, player := range h.players {
			if player.State != fishing.StateIdle {
				player.Reset()
			}
		}
		return
	}

	for _, sessionID := range h.sessionIDs() {
		player := h.players[sessionID]
		if !player.Connected {
			continue
		}

		switch player.State {
		case fishing.StateCasting:
			if h.pack.Hotspot(player.HotspotID) == nil {
				player.Reset()
				break
			}
			offer, ok := player.Offer(sessionID, nowMs)
			if !ok {
				player.Reset()
				break
			}
			if client := h.clients.Find(sessionID); client != nil {
				client.Send(BiteOffer(offer))
			}
		case fishing.StateOffered:
			if player.Expired(nowMs, h.graceMs(sessionID)) {
				offerID := player.OfferID
				player.Cool(nowMs)
				if client := h.clients.Find(sessionID); client != nil {
					client.Send(CatchResult{OfferID: offerID, PlayerID: sessionID})
				}
			}
		case fishing.StateCooldown:
			player.Rest(nowMs)
		}

		if player.State == fishing.StateCasting || player.State == fishing.StateOffered {
			h.activity[player.HotspotID]++
		}
	}
}

func (h *Hub) advancePhase(nowMs int64) {
	if !h.phase.Advance(nowMs) {
		return
	}

	switch h.phase.Phase {
	case match.PhaseMatch:
		h.resultsEmitted = false
		h.results = nil
		h.depletion = fishing.NewDepletion(fishing.DepletionMs)
	case match.PhaseResults:
		h.emitResults()
	}

	h.logf("phase phase=%s status=%s", h.phase.Phase, h.phase.Phase.Status())
	h.emitMatchState(nil)
}

// reemit sends the match state again once a scheduled re-emit is due.
func (h *Hub) reemit(nowMs int64) {
	due := false
	kept := h.reemits[:0]
	for _, atMs := range h.reemits {
		if nowMs >= atMs {
			due = true
		} else {
			kept = append(kept, atMs)
		}
	}
	h.reemits = kept

	if due {
		h.emitMatchState(nil)
	}
}

// Update sends a RoomState message to each Client.
func (h *Hub) Update(nowMs int64) {
	if h.clients.Len == 0 {
		return
	}

	ids := h.sessionIDs()
	players := make([]Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, *h.players[id])
	}

	var activity map[string]int
	if len(h.activity) > 0 {
		activity = make(map[string]int, len(h.activity))
		for id, n := range h.activity {
			activity[id] = n
		}
	}

	h.clients.Broadcast(RoomState{
		Phase:         h.phase.Phase,
		ServerMs:      nowMs,
		RemainingMs:   h.phase.RemainingMs(nowMs),
		HostSessionID: h.phase.HostSessionID,
		Players:       players,
		Activity:      activity,
	})
}
