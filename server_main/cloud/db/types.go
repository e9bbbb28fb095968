// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"net"
)

type Server struct {
	Region  string `dynamo:"region"`
	Slot    int    `dynamo:"slot"`
	IP      net.IP `dynamo:"ip"`
	Rooms   int    `dynamo:"rooms"`
	Players int    `dynamo:"players"`
	TTL     int64  `dynamo:"ttl,omitempty"`
}

// MatchResult indexes a finished match. The full results live in the
// filesystem under ResultsKey.
type MatchResult struct {
	Room          string `dynamo:"room"`
	Name          string `dynamo:"name"`
	Region        string `dynamo:"region"`
	Seed          uint32 `dynamo:"match_seed"`
	MatchStartMs  int64  `dynamo:"match_start_ms"`
	MatchEndMs    int64  `dynamo:"match_end_ms"`
	Players       int    `dynamo:"players"`
	Champion      string `dynamo:"champion,omitempty"`
	ChampionScore int    `dynamo:"champion_score"`
	ResultsKey    string `dynamo:"results_key"`
}
