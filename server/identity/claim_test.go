// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"reflect"
	"testing"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Chrone", "Chrone", true},
		{"  tankdaddy ", "TankDaddy", true},
		{"COMPUTERDUDE04", "ComputerDude04", true},
		{"", "", false},
		{"Chrone2", "", false},
		{"Mallory", "", false},
	}

	for _, test := range tests {
		got, ok := CanonicalName(test.raw)
		if got != test.want || ok != test.ok {
			t.Errorf("%q: expected (%q, %v) got (%q, %v)", test.raw, test.want, test.ok, got, ok)
		}
	}
}

func TestDecideNameClaim(t *testing.T) {
	tests := []struct {
		name      string
		claimants []Claimant
		want      Decision
	}{
		{
			name: "unclaimed",
			claimants: []Claimant{
				{SessionID: "a", Name: "Reece", Connected: true},
			},
			want: Decision{Action: Assign},
		},
		{
			name: "already own",
			claimants: []Claimant{
				{SessionID: "me", Name: "Chrone", Connected: true},
			},
			want: Decision{Action: Assign},
		},
		{
			name: "taken",
			claimants: []Claimant{
				{SessionID: "a", Name: "Chrone", Connected: true},
			},
			want: Decision{Action: Reject},
		},
		{
			name: "taken even with disconnected owner",
			claimants: []Claimant{
				{SessionID: "a", Name: "Chrone", LastSeenMs: 500},
				{SessionID: "b", Name: "Chrone", Connected: true},
			},
			want: Decision{Action: Reject},
		},
		{
			name: "resume most recent",
			claimants: []Claimant{
				{SessionID: "a", Name: "Chrone", LastSeenMs: 100},
				{SessionID: "b", Name: "Chrone", LastSeenMs: 300},
				{SessionID: "c", Name: "Chrone", LastSeenMs: 200},
			},
			want: Decision{Action: Resume, ResumeFrom: "b"},
		},
		{
			name: "resume tie goes to first",
			claimants: []Claimant{
				{SessionID: "a", Name: "Chrone", LastSeenMs: 300},
				{SessionID: "b", Name: "Chrone", LastSeenMs: 300},
			},
			want: Decision{Action: Resume, ResumeFrom: "a"},
		},
	}

	for _, test := range tests {
		if got := DecideNameClaim("me", "Chrone", test.claimants); got != test.want {
			t.Errorf("%s: expected %v got %v", test.name, test.want, got)
		}
	}
}

func TestExpired(t *testing.T) {
	claimants := []Claimant{
		{SessionID: "connected", Connected: true, LastSeenMs: 0},
		{SessionID: "fresh", LastSeenMs: 1},
		{SessionID: "stale", LastSeenMs: 0},
	}

	got := Expired(claimants, DisconnectGrace.Milliseconds(), DisconnectGrace)
	if want := []string{"stale"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v got %v", want, got)
	}
}

func TestActionString(t *testing.T) {
	tests := map[Action]string{
		Assign:     "assign",
		Resume:     "resume",
		Reject:     "reject",
		Action(99): "invalid",
	}
	for action, want := range tests {
		if got := action.String(); got != want {
			t.Errorf("expected %q got %q", want, got)
		}
	}
}
