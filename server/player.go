// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/identity"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

// Points older than this no longer count towards Player.PointsLast3Min.
const pointsWindowMs = 3 * 60 * 1000

type (
	// Player is one participant of a room. It outlives its connection by
	// identity.DisconnectGrace so the same name can resume it.
	Player struct {
		SessionID  string          `json:"id"`
		Name       string          `json:"name"`
		Connected  bool            `json:"connected"`
		LastSeenMs int64           `json:"last_seen_server_ms"`
		Position   world.Vec2f     `json:"position"`
		Facing     world.Direction `json:"dir"`
		Wood       int             `json:"wood"`
		Boat       world.Boat      `json:"boat_id"`
		Score      int             `json:"score_total"`

		fishing.Cast
		GatherLockoutUntilMs int64 `json:"gather_lockout_until_ms"`

		BestFishWeight    float64 `json:"best_fish_weight"`
		BestFishLength    float64 `json:"best_fish_length"`
		BestFishID        string  `json:"best_fish_id"`
		BestFishMs        int64   `json:"best_fish_achieved_ms"`
		SpeciesCount      int     `json:"species_caught_count"`
		SpeciesAchievedMs int64   `json:"species_count_achieved_ms"`
		PointsLast3Min    int     `json:"points_last_3min"`

		Stats Stats `json:"stats"`
	}

	Stats struct {
		FishCount     int     `json:"fish_count"`
		BiggestWeight float64 `json:"biggest_weight"`
		BiggestLength float64 `json:"biggest_length"`
		RarestTier    int     `json:"rarest_rarity"`
		WoodCollected int     `json:"wood_collected"`
	}

	// pointsEvent is one catch in the rolling points window.
	pointsEvent struct {
		atMs   int64
		points int
	}

	// runtime is per session state that is not visible to clients.
	runtime struct {
		species map[string]struct{}
		points  []pointsEvent
	}
)

func newPlayer(sessionID string, position world.Vec2f, nowMs int64) *Player {
	return &Player{
		SessionID:  sessionID,
		Connected:  true,
		LastSeenMs: nowMs,
		Position:   position,
		Facing:     world.DirectionDown,
		Boat:       world.BoatNone,
		Cast:       fishing.NewCast(),
	}
}

func newRuntime() *runtime {
	return &runtime{species: make(map[string]struct{})}
}

func (player *Player) claimant() identity.Claimant {
	return identity.Claimant{
		SessionID:  player.SessionID,
		Name:       player.Name,
		Connected:  player.Connected,
		LastSeenMs: player.LastSeenMs,
	}
}

func (player *Player) snapshot() match.Snapshot {
	return match.Snapshot{
		Name:              player.Name,
		Score:             player.Score,
		BestFishWeight:    player.BestFishWeight,
		BestFishLength:    player.BestFishLength,
		BestFishID:        player.BestFishID,
		BestFishMs:        player.BestFishMs,
		SpeciesCount:      player.SpeciesCount,
		SpeciesAchievedMs: player.SpeciesAchievedMs,
	}
}

func (player *Player) gather(nowMs int64) {
	player.Wood++
	player.Stats.WoodCollected++
	player.GatherLockoutUntilMs = nowMs + world.GatherLockoutMs
}

func (player *Player) buildCanoe() {
	player.Wood -= world.CanoeWoodCost
	player.Boat = world.BoatCanoe
}

// recordCatch credits a caught fish. The best fish is replaced by a heavier
// one, or an equally heavy but longer one.
func (player *Player) recordCatch(outcome fishing.Outcome, rt *runtime, nowMs int64) {
	player.Score += outcome.PointsDelta

	stats := &player.Stats
	stats.FishCount++
	stats.BiggestWeight = max(stats.BiggestWeight, outcome.Weight)
	stats.BiggestLength = max(stats.BiggestLength, outcome.Length)
	stats.RarestTier = max(stats.RarestTier, outcome.RarityTier)

	if outcome.Weight > player.BestFishWeight ||
		(outcome.Weight == player.BestFishWeight && outcome.Length > player.BestFishLength) {
		player.BestFishWeight = outcome.Weight
		player.BestFishLength = outcome.Length
		player.BestFishID = outcome.FishID
		player.BestFishMs = nowMs
	}

	if _, ok := rt.species[outcome.FishID]; !ok {
		rt.species[outcome.FishID] = struct{}{}
		player.SpeciesAchievedMs = nowMs
	}
	player.SpeciesCount = len(rt.species)

	player.PointsLast3Min = rt.addPoints(nowMs, outcome.PointsDelta)
}

// addPoints records points and returns the total of the window ending now.
func (rt *runtime) addPoints(nowMs int64, points int) int {
	rt.points = append(rt.points, pointsEvent{atMs: nowMs, points: points})

	threshold := nowMs - pointsWindowMs
	kept := rt.points[:0]
	total := 0
	for _, event := range rt.points {
		if event.atMs >= threshold {
			kept = append(kept, event)
			total += event.points
		}
	}
	rt.points = kept
	return total
}
