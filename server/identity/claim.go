// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"time"
)

// DisconnectGrace is how long a disconnected player keeps their record and
// name before being cleaned up.
const DisconnectGrace = 2 * time.Minute

const (
	Assign = Action(iota)
	Resume
	Reject
)

type (
	// Action is the outcome of a name claim.
	Action uint8

	// Claimant is what DecideNameClaim needs to know about an existing player.
	Claimant struct {
		SessionID  string
		Name       string
		Connected  bool
		LastSeenMs int64
	}

	// Decision is the result of DecideNameClaim. ResumeFrom is only set for Resume.
	Decision struct {
		Action     Action
		ResumeFrom string
	}
)

func (a Action) String() string {
	switch a {
	case Assign:
		return "assign"
	case Resume:
		return "resume"
	case Reject:
		return "reject"
	default:
		return "invalid"
	}
}

// DecideNameClaim decides what happens when joiningID claims name.
//
// A session that already owns the name keeps it. A name owned by a connected
// session is rejected. Otherwise the most recently seen disconnected owner is
// resumed, with ties going to the earliest claimant in the slice. A name no one
// owns is assigned.
func DecideNameClaim(joiningID, name string, claimants []Claimant) Decision {
	var resume *Claimant

	for i := range claimants {
		c := &claimants[i]
		if c.Name != name {
			continue
		}

		if c.SessionID == joiningID {
			return Decision{Action: Assign}
		}

		if c.Connected {
			return Decision{Action: Reject}
		}

		if resume == nil || c.LastSeenMs > resume.LastSeenMs {
			resume = c
		}
	}

	if resume != nil {
		return Decision{Action: Resume, ResumeFrom: resume.SessionID}
	}
	return Decision{Action: Assign}
}

// Expired returns the session ids of disconnected claimants whose grace
// period has elapsed at nowMs.
func Expired(claimants []Claimant, nowMs int64, grace time.Duration) []string {
	var expired []string
	for _, c := range claimants {
		if !c.Connected && nowMs-c.LastSeenMs >= grace.Milliseconds() {
			expired = append(expired, c.SessionID)
		}
	}
	return expired
}
