// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

import (
	"strconv"
)

const (
	OfferWindowMs = 1750
	CooldownMs    = 750
)

const (
	StateIdle     = State("IDLE")
	StateCasting  = State("CASTING")
	StateOffered  = State("OFFERED")
	StateCooldown = State("COOLDOWN")
)

// Reject codes of the fishing protocol.
const (
	LockedOut       = Reject("LOCKED_OUT")
	InvalidHotspot  = Reject("INVALID_HOTSPOT")
	NoActiveCast    = Reject("NO_ACTIVE_CAST")
	OfferExpired    = Reject("OFFER_EXPIRED")
	HotspotDepleted = Reject("HOTSPOT_DEPLETED")
)

type (
	State string

	// Reject is an error code sent back to the player. The empty Reject means accepted.
	Reject string

	// Cast is the fishing progress of one player. The offer fields are set
	// if and only if the state is StateOffered.
	Cast struct {
		State           State  `json:"cast_state"`
		HotspotID       string `json:"cast_hotspot_id"`
		OfferID         string `json:"-"`
		OfferExpiresMs  int64  `json:"-"`
		CooldownUntilMs int64  `json:"-"`
		Seq             int    `json:"cast_seq"`
		LockoutUntilMs  int64  `json:"-"`
	}

	// BiteOffer is pushed to the casting player only.
	BiteOffer struct {
		OfferID   string `json:"offer_id"`
		PlayerID  string `json:"player_id"`
		HotspotID string `json:"hotspot_id"`
		IssuedMs  int64  `json:"issued_server_ms"`
		ExpiresMs int64  `json:"expires_server_ms"`
	}
)

func NewCast() Cast {
	return Cast{State: StateIdle}
}

// CheckStart validates a cast against a hotspot.
func (c *Cast) CheckStart(nowMs int64, hotspotExists bool) Reject {
	if c.LockoutUntilMs > nowMs {
		return LockedOut
	}
	if !hotspotExists {
		return InvalidHotspot
	}
	return ""
}

// CheckCatch validates a catch click. A click at exactly expires + grace is
// still in time.
func (c *Cast) CheckCatch(nowMs int64, offerID string, graceMs int64) Reject {
	if c.LockoutUntilMs > nowMs {
		return LockedOut
	}
	if c.State != StateOffered || c.OfferID == "" || offerID != c.OfferID {
		return NoActiveCast
	}
	if nowMs > c.OfferExpiresMs+graceMs {
		return OfferExpired
	}
	return ""
}

// Begin enters StateCasting on hotspotID, abandoning any previous cast.
func (c *Cast) Begin(hotspotID string) {
	c.State = StateCasting
	c.HotspotID = hotspotID
	c.clearOffer()
	c.CooldownUntilMs = 0
	c.Seq++
}

// Offer moves a casting player to StateOffered. It returns false if there is
// nothing to offer.
func (c *Cast) Offer(playerID string, nowMs int64) (BiteOffer, bool) {
	if c.State != StateCasting || c.HotspotID == "" {
		return BiteOffer{}, false
	}

	c.State = StateOffered
	c.OfferID = "offer_" + playerID + "_" + strconv.Itoa(c.Seq)
	c.OfferExpiresMs = nowMs + OfferWindowMs

	return BiteOffer{
		OfferID:   c.OfferID,
		PlayerID:  playerID,
		HotspotID: c.HotspotID,
		IssuedMs:  nowMs,
		ExpiresMs: c.OfferExpiresMs,
	}, true
}

// Expired reports whether an offer went unanswered past its grace.
func (c *Cast) Expired(nowMs, graceMs int64) bool {
	return c.State == StateOffered && nowMs > c.OfferExpiresMs+graceMs
}

// Cool ends an offer, successful or not.
func (c *Cast) Cool(nowMs int64) {
	c.State = StateCooldown
	c.clearOffer()
	c.CooldownUntilMs = nowMs + CooldownMs
}

// Rest returns to StateIdle once the cooldown is over, reporting whether it did.
func (c *Cast) Rest(nowMs int64) bool {
	if c.State != StateCooldown || nowMs < c.CooldownUntilMs {
		return false
	}
	c.Reset()
	return true
}

// Reset abandons any cast. The sequence is kept so offer ids never repeat.
func (c *Cast) Reset() {
	c.State = StateIdle
	c.HotspotID = ""
	c.clearOffer()
	c.CooldownUntilMs = 0
}

func (c *Cast) clearOffer() {
	c.OfferID = ""
	c.OfferExpiresMs = 0
}
