// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"math"

	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/identity"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/ratelimit"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

// Make sure to register in init function
type (
	// Join claims one of the allowed names, resuming a disconnected player
	// of the same name if there is one.
	Join struct {
		Envelope
		Name string `json:"name"`
	}

	// Move applies a directional intent. Missing axes are 0.
	Move struct {
		Envelope
		Dx float64 `json:"dx"`
		Dy float64 `json:"dy"`
	}

	GatherWood struct {
		Envelope
	}

	BuildCanoe struct {
		Envelope
	}

	CastStart struct {
		Envelope
		HotspotID string `json:"hotspot_id"`
	}

	CatchClick struct {
		Envelope
		OfferID string `json:"offer_id"`
	}

	HostStartMatch struct {
		Envelope
	}

	HostCancelCountdown struct {
		Envelope
	}

	// Ping samples round trip time.
	Ping struct {
		Envelope
		T0ClientMs *float64 `json:"t0_client_ms"`
	}

	// InvalidInbound means invalid message type from client (possibly out of date)
	// or a message that could not be decoded.
	// NOTE: Do not register, otherwise client could send type "invalidInbound"
	InvalidInbound struct {
		messageType messageType
		err         error
	}

	// PayloadTooLarge replaces a message larger than MaxInboundBytes.
	// NOTE: Do not register.
	PayloadTooLarge struct {
		size int
	}

	// limited inbounds spend a token of their category.
	limited interface {
		category() ratelimit.Category
	}
)

func init() {
	registerInbound("JOIN", Join{})
	registerInbound("MOVE", Move{})
	registerInbound("GATHER_WOOD", GatherWood{})
	registerInbound("BUILD_CANOE", BuildCanoe{})
	registerInbound("CAST_START", CastStart{})
	registerInbound("CATCH_CLICK", CatchClick{})
	registerInbound("HOST_START_MATCH", HostStartMatch{})
	registerInbound("HOST_CANCEL_COUNTDOWN", HostCancelCountdown{})
	registerInbound("PING", Ping{})
}

func (Join) category() ratelimit.Category       { return ratelimit.CategoryJoin }
func (Move) category() ratelimit.Category       { return ratelimit.CategoryMove }
func (CastStart) category() ratelimit.Category  { return ratelimit.CategoryCast }
func (CatchClick) category() ratelimit.Category { return ratelimit.CategoryCatch }

func (data Join) Inbound(h *Hub, client Client, player *Player) {
	name, ok := identity.CanonicalName(data.Name)
	if !ok {
		h.rejectJoin(client, "NAME_INVALID", "Name is not in the allowlist.")
		return
	}

	if player == nil {
		return
	}

	nowMs := h.now()
	decision := identity.DecideNameClaim(player.SessionID, name, h.claimants())
	h.logf("name_claim session_id=%s name=%s action=%s", player.SessionID, name, decision.Action)

	switch decision.Action {
	case identity.Reject:
		h.rejectJoin(client, "NAME_TAKEN", "Name is already active in this room.")
	case identity.Resume:
		previous := h.players[decision.ResumeFrom]
		if previous == nil {
			h.rejectJoin(client, "RESUME_FAILED", "Could not resume disconnected player state.")
			return
		}
		h.resume(previous, player.SessionID, name, nowMs)
	default:
		player.Name = name
		player.Connected = true
		player.LastSeenMs = nowMs
	}
}

func (data Move) Inbound(h *Hub, client Client, player *Player) {
	if player == nil || !h.gameplay(client) {
		return
	}

	nowMs := h.now()
	player.LastSeenMs = nowMs

	intent := world.Intent(data.Dx, data.Dy)
	next := h.world.Step(player.Position, intent)

	if !h.world.CanEnter(next, player.Boat) {
		// Clients hold the key down, so only tell them every so often.
		last, ok := h.lastWaterError[player.SessionID]
		if !ok || nowMs-last >= waterErrorPeriodMs {
			client.Send(errorMessage(string(world.NeedCanoeForWater), "Craft a canoe before entering water."))
			h.lastWaterError[player.SessionID] = nowMs
		}
		return
	}

	player.Position = next
	player.Facing = world.Facing(intent, player.Facing)
}

func (data GatherWood) Inbound(h *Hub, client Client, player *Player) {
	if player == nil || !h.gameplay(client) {
		return
	}

	nowMs := h.now()
	switch h.world.CheckGather(player.Position, player.GatherLockoutUntilMs, nowMs) {
	case world.NotInForest:
		client.Send(errorMessage(string(world.NotInForest), "Gathering wood requires being inside the forest."))
	case world.GatherCooldown:
		message := errorMessage(string(world.GatherCooldown), "Gather action is on cooldown.")
		message.RetryAfterMs = max(0, player.GatherLockoutUntilMs-nowMs)
		client.Send(message)
	default:
		player.gather(nowMs)
	}
}

func (data BuildCanoe) Inbound(h *Hub, client Client, player *Player) {
	if player == nil || !h.gameplay(client) {
		return
	}

	player.LastSeenMs = h.now()
	if player.Boat == world.BoatCanoe {
		return
	}

	switch h.world.CheckBuild(player.Position, player.Wood) {
	case world.NeedMarina:
		client.Send(errorMessage(string(world.NeedMarina), "Go to the Marina to craft a canoe."))
	case world.NeedWood:
		message := errorMessage(string(world.NeedWood), "Need 3 wood to craft canoe.")
		have := player.Wood
		message.Need = world.CanoeWoodCost
		message.Have = &have
		client.Send(message)
	default:
		player.buildCanoe()
	}
}

func (data CastStart) Inbound(h *Hub, client Client, player *Player) {
	if player == nil || !h.gameplay(client) {
		return
	}

	nowMs := h.now()
	player.LastSeenMs = nowMs

	if reject := world.CheckFish(player.Boat); reject != "" {
		client.Send(errorMessage(string(reject), "Craft a canoe before fishing."))
		return
	}

	hotspot := h.pack.Hotspot(data.HotspotID)
	if reject := player.CheckStart(nowMs, hotspot != nil); reject != "" {
		client.Send(fishingError(reject))
		return
	}

	if retry := h.depletion.RetryAfter(hotspot.ID, nowMs); retry > 0 {
		message := errorMessage(string(fishing.HotspotDepleted), "Hotspot is depleted. Try another area.")
		message.RetryAfterMs = retry
		client.Send(message)
		return
	}

	if player.State != fishing.StateIdle {
		client.Send(fishingError(fishing.NoActiveCast))
		return
	}

	player.Begin(hotspot.ID)
}

func (data CatchClick) Inbound(h *Hub, client Client, player *Player) {
	if player == nil || !h.gameplay(client) {
		return
	}

	nowMs := h.now()
	player.LastSeenMs = nowMs

	if reject := player.CheckCatch(nowMs, data.OfferID, h.graceMs(player.SessionID)); reject != "" {
		if reject == fishing.OfferExpired && player.State == fishing.StateOffered {
			player.Cool(nowMs)
		}
		client.Send(fishingError(reject))
		return
	}

	hotspot := h.pack.Hotspot(player.HotspotID)
	if hotspot == nil {
		player.Cool(nowMs)
		client.Send(fishingError(fishing.InvalidHotspot))
		return
	}

	outcome, err := fishing.Resolve(h.seed, player.SessionID, player.Seq, hotspot.ID, h.pack.Fish, h.pack.Scoring)
	if err != nil {
		h.logf("resolve_failed session_id=%s err=%v", player.SessionID, err)
		player.Cool(nowMs)
		client.Send(errorMessage("RESOLVE_FAILED", "Catch could not be resolved."))
		return
	}

	player.recordCatch(outcome, h.runtimeOf(player.SessionID), nowMs)

	h.clients.Broadcast(CatchResult{
		OfferID:     data.OfferID,
		PlayerID:    player.SessionID,
		Success:     true,
		FishID:      outcome.FishID,
		Weight:      outcome.Weight,
		Length:      outcome.Length,
		PointsDelta: outcome.PointsDelta,
	})

	h.depletion.Mark(hotspot.ID, nowMs)
	h.logCatch(player, hotspot.ID, outcome, nowMs)
	player.Cool(nowMs)
}

func (data HostStartMatch) Inbound(h *Hub, client Client, _ *Player) {
	switch h.phase.Start(client.Data().SessionID, h.now()) {
	case match.NotHost:
		client.Send(errorMessage(string(match.NotHost), "Only host can start match."))
	case match.WrongPhase:
		client.Send(errorMessage(string(match.WrongPhase), "Match can only be started from lobby."))
	default:
		h.emitMatchState(nil)
	}
}

func (data HostCancelCountdown) Inbound(h *Hub, client Client, _ *Player) {
	switch h.phase.Cancel(client.Data().SessionID) {
	case match.NotHost:
		client.Send(errorMessage(string(match.NotHost), "Only host can cancel countdown."))
	case match.WrongPhase:
		client.Send(errorMessage(string(match.WrongPhase), "Countdown is not active."))
	default:
		h.emitMatchState(nil)
	}
}

func (data Ping) Inbound(h *Hub, client Client, player *Player) {
	sessionID := client.Data().SessionID
	nowMs := h.now()

	if last, ok := h.lastPing[sessionID]; ok && nowMs-last < fishing.PingIntervalMs {
		return
	}

	if data.T0ClientMs == nil || math.IsNaN(*data.T0ClientMs) || math.IsInf(*data.T0ClientMs, 0) {
		return
	}
	t0 := *data.T0ClientMs
	h.lastPing[sessionID] = nowMs

	prev, ok := h.rtt[sessionID]
	if !ok {
		prev = -1
	}
	if rtt, ok := fishing.SmoothRTT(prev, float64(nowMs)-t0); ok {
		h.rtt[sessionID] = rtt
	}

	if player != nil {
		player.LastSeenMs = nowMs
	}

	client.Send(Pong{T0ClientMs: t0, ServerMs: nowMs})
}

func (data InvalidInbound) Inbound(h *Hub, client Client, _ *Player) {
	if debugSocket {
		log.Printf("invalid inbound type=%q err=%v", data.messageType, data.err)
	}
	client.Send(errorMessage("ERR_PAYLOAD", "Message payload is invalid."))
	h.violation(client, "invalid_payload")
}

func (data PayloadTooLarge) Inbound(h *Hub, client Client, _ *Player) {
	client.Send(errorMessage("ERR_PAYLOAD_TOO_LARGE", "Message payload is too large."))
	h.violation(client, "payload_too_large")
}
