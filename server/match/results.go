// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const (
	AwardChampion    = "Champion"
	AwardBiggestFish = "Biggest Fish"
	AwardMostSpecies = "Most Species"

	// Used as winner when nobody played.
	noWinner = "TBD"
)

type (
	// Snapshot is what the results need to know about a player.
	Snapshot struct {
		Name              string
		Score             int
		BestFishWeight    float64
		BestFishLength    float64
		BestFishID        string
		BestFishMs        int64
		SpeciesCount      int
		SpeciesAchievedMs int64
	}

	Standing struct {
		Name  string `json:"name"`
		Score int    `json:"score_total"`
	}

	Award struct {
		Title      string `json:"title"`
		WinnerName string `json:"winner_name"`
		Detail     string `json:"detail"`
		AchievedMs int64  `json:"achieved_server_ms"`
	}

	Results struct {
		Leaderboard []Standing `json:"leaderboard"`
		Awards      []Award    `json:"awards"`
	}
)

// ComputeResults ranks players and picks the award winners.
func ComputeResults(players []Snapshot, matchEndMs int64) Results {
	leaderboard := Leaderboard(players)
	return Results{
		Leaderboard: leaderboard,
		Awards:      Awards(players, leaderboard, matchEndMs),
	}
}

// Leaderboard sorts players by score descending then name ascending.
func Leaderboard(players []Snapshot) []Standing {
	standings := lo.Map(players, func(p Snapshot, _ int) Standing {
		return Standing{Name: p.Name, Score: p.Score}
	})
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Name < b.Name
	})
	return standings
}

// Awards always returns Champion, Biggest Fish and Most Species in that order.
// The champion's achieved time is the end of the match.
func Awards(players []Snapshot, leaderboard []Standing, matchEndMs int64) []Award {
	champion := Standing{Name: noWinner}
	if len(leaderboard) > 0 {
		champion = leaderboard[0]
	}

	awards := []Award{
		{
			Title:      AwardChampion,
			WinnerName: champion.Name,
			Detail:     fmt.Sprintf("%d pts", champion.Score),
			AchievedMs: matchEndMs,
		},
		{Title: AwardBiggestFish, WinnerName: noWinner, Detail: "No players"},
		{Title: AwardMostSpecies, WinnerName: noWinner, Detail: "No players"},
	}

	if biggest, ok := best(players, func(a, b *Snapshot) int {
		return compareFloat(a.BestFishWeight, b.BestFishWeight)
	}, func(p *Snapshot) int64 { return p.BestFishMs }); ok {
		awards[1].WinnerName = biggest.Name
		awards[1].AchievedMs = biggest.BestFishMs
		if biggest.BestFishWeight > 0 {
			awards[1].Detail = fmt.Sprintf("%s %.2flb", biggest.BestFishID, biggest.BestFishWeight)
		} else {
			awards[1].Detail = "No fish caught"
		}
	}

	if most, ok := best(players, func(a, b *Snapshot) int {
		return a.SpeciesCount - b.SpeciesCount
	}, func(p *Snapshot) int64 { return p.SpeciesAchievedMs }); ok {
		awards[2].WinnerName = most.Name
		awards[2].AchievedMs = most.SpeciesAchievedMs
		awards[2].Detail = fmt.Sprintf("%d species", most.SpeciesCount)
	}

	return awards
}

// best returns the player with the greatest metric. Ties go to whoever
// achieved it first, then to name ascending. Unachieved times (zero) never
// win a tie on time.
func best(players []Snapshot, metric func(a, b *Snapshot) int, achieved func(*Snapshot) int64) (*Snapshot, bool) {
	if len(players) == 0 {
		return nil, false
	}

	winner := &players[0]
	for i := 1; i < len(players); i++ {
		if better(&players[i], winner, metric, achieved) {
			winner = &players[i]
		}
	}
	return winner, true
}

func better(a, b *Snapshot, metric func(a, b *Snapshot) int, achieved func(*Snapshot) int64) bool {
	if c := metric(a, b); c != 0 {
		return c > 0
	}

	aMs, bMs := achieved(a), achieved(b)
	if aMs > 0 && bMs > 0 && aMs != bMs {
		return aMs < bMs
	}
	return strings.Compare(a.Name, b.Name) < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
