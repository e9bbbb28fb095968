// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package match

import (
	"time"
)

const (
	CountdownDuration = 15 * time.Second
	MatchDuration     = 15 * time.Minute
)

const (
	PhaseLobby     = Phase("LOBBY")
	PhaseCountdown = Phase("COUNTDOWN")
	PhaseMatch     = Phase("MATCH")
	PhaseResults   = Phase("RESULTS")
)

const (
	StatusWaiting    = Status("WAITING")
	StatusInProgress = Status("IN_PROGRESS")
)

// Reject codes of host controls.
const (
	NotHost    = Reject("ERR_NOT_HOST")
	WrongPhase = Reject("ERR_PHASE")
	Locked     = Reject("PHASE_LOCKED")
)

type (
	Phase string

	// Status is how a room is advertised in the lobby.
	Status string

	// Reject is an error code sent back to the player. The empty Reject means accepted.
	Reject string

	// State is the lifecycle of one match. The zero value is not usable, call NewState.
	State struct {
		Phase          Phase  `json:"phase"`
		CountdownEndMs int64  `json:"countdown_end_ms"`
		MatchStartMs   int64  `json:"match_start_ms"`
		MatchEndMs     int64  `json:"match_end_ms"`
		HostSessionID  string `json:"host_session_id"`
	}
)

func NewState() State {
	return State{Phase: PhaseLobby}
}

// Status of the room given its phase.
func (p Phase) Status() Status {
	switch p {
	case PhaseMatch, PhaseResults:
		return StatusInProgress
	default:
		return StatusWaiting
	}
}

// Gameplay returns Locked unless the match is being played.
func (p Phase) Gameplay() Reject {
	if p != PhaseMatch {
		return Locked
	}
	return ""
}

// Claim makes sessionID the host if there is none. The first claimant wins.
func (s *State) Claim(sessionID string) {
	if s.HostSessionID == "" {
		s.HostSessionID = sessionID
	}
}

// IsHost returns true if sessionID controls the match.
func (s *State) IsHost(sessionID string) bool {
	return s.HostSessionID != "" && s.HostSessionID == sessionID
}

// Start begins the countdown.
func (s *State) Start(sessionID string, nowMs int64) Reject {
	if !s.IsHost(sessionID) {
		return NotHost
	}
	if s.Phase != PhaseLobby {
		return WrongPhase
	}

	s.Phase = PhaseCountdown
	s.CountdownEndMs = nowMs + CountdownDuration.Milliseconds()
	s.MatchStartMs = 0
	s.MatchEndMs = 0
	return ""
}

// Cancel returns a countdown to the lobby.
func (s *State) Cancel(sessionID string) Reject {
	if !s.IsHost(sessionID) {
		return NotHost
	}
	if s.Phase != PhaseCountdown {
		return WrongPhase
	}

	s.Phase = PhaseLobby
	s.CountdownEndMs = 0
	s.MatchStartMs = 0
	s.MatchEndMs = 0
	return ""
}

// Advance applies the time driven transitions and returns true if the phase changed.
// At most one transition happens per call.
func (s *State) Advance(nowMs int64) bool {
	switch s.Phase {
	case PhaseCountdown:
		if s.CountdownEndMs > 0 && nowMs >= s.CountdownEndMs {
			s.Phase = PhaseMatch
			s.MatchStartMs = nowMs
			s.MatchEndMs = nowMs + MatchDuration.Milliseconds()
			s.CountdownEndMs = 0
			return true
		}
	case PhaseMatch:
		if s.MatchEndMs > 0 && nowMs >= s.MatchEndMs {
			s.Phase = PhaseResults
			return true
		}
	}
	return false
}

// RemainingMs is the time left in the countdown or match.
func (s *State) RemainingMs(nowMs int64) int64 {
	switch s.Phase {
	case PhaseCountdown:
		return max(0, s.CountdownEndMs-nowMs)
	case PhaseMatch:
		return max(0, s.MatchEndMs-nowMs)
	default:
		return 0
	}
}
