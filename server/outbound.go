// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

type (
	// ErrorMessage tells one client why its message had no effect.
	ErrorMessage struct {
		Code         string `json:"code"`
		Message      string `json:"message"`
		RetryAfterMs int64  `json:"retry_after_ms,omitempty"`
		Need         int    `json:"need,omitempty"`
		Have         *int   `json:"have,omitempty"`
	}

	// Pong answers a Ping so the client can estimate clock offset.
	Pong struct {
		T0ClientMs float64 `json:"t0_client_ms"`
		ServerMs   int64   `json:"server_ms"`
	}

	// BiteOffer is sent only to the player who cast.
	BiteOffer fishing.BiteOffer

	// CatchResult is broadcast on success and sent to the fisher alone when
	// an offer lapses.
	CatchResult struct {
		OfferID     string  `json:"offer_id"`
		PlayerID    string  `json:"player_id"`
		Success     bool    `json:"success"`
		FishID      string  `json:"fish_id,omitempty"`
		Weight      float64 `json:"weight"`
		Length      float64 `json:"length"`
		PointsDelta int     `json:"points_delta"`
	}

	MatchState struct {
		match.State
		ServerMs int64 `json:"server_ms"`
	}

	MatchResults match.Results

	ServerHeartbeat struct {
		ServerMs int64       `json:"server_ms"`
		Phase    match.Phase `json:"phase"`
	}

	// Welcome is the first message of every session.
	Welcome struct {
		SessionID string            `json:"session_id"`
		Version   string            `json:"version"`
		World     *world.Map        `json:"world"`
		Hotspots  []fishing.Hotspot `json:"hotspots"`
	}

	// RoomState is the per tick view of the room.
	RoomState struct {
		Phase         match.Phase    `json:"phase"`
		ServerMs      int64          `json:"server_ms"`
		RemainingMs   int64          `json:"time_remaining_ms"`
		HostSessionID string         `json:"host_session_id"`
		Players       []Player       `json:"players"`
		Activity      map[string]int `json:"hotspot_activity,omitempty"`
	}
)

func init() {
	registerOutbound("ERROR", ErrorMessage{})
	registerOutbound("PONG", Pong{})
	registerOutbound("BITE_OFFER", BiteOffer{})
	registerOutbound("CATCH_RESULT", CatchResult{})
	registerOutbound("MATCH_STATE", MatchState{})
	registerOutbound("MATCH_RESULTS", MatchResults{})
	registerOutbound("SERVER_HEARTBEAT", ServerHeartbeat{})
	registerOutbound("WELCOME", Welcome{})
	registerOutbound("ROOM_STATE", RoomState{})
}

// errorMessage builds the ERROR for a reject code.
func errorMessage(code, message string) ErrorMessage {
	return ErrorMessage{Code: code, Message: message}
}

var fishingErrorMessages = map[fishing.Reject]string{
	fishing.InvalidHotspot: "Hotspot id is invalid.",
	fishing.NoActiveCast:   "No active cast/offer for this action.",
	fishing.OfferExpired:   "Catch offer expired.",
	fishing.LockedOut:      "Fishing is temporarily locked.",
}

func fishingError(reject fishing.Reject) ErrorMessage {
	message, ok := fishingErrorMessages[reject]
	if !ok {
		message = "Fishing action failed."
	}
	return errorMessage(string(reject), message)
}
