// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

import (
	"errors"
	"hash/fnv"
	"math"
	"strconv"
)

var ErrEmptyCatalog = errors.New("fishing: fish catalog is empty")

type Outcome struct {
	FishID      string  `json:"fish_id"`
	Weight      float64 `json:"weight"`
	Length      float64 `json:"length"`
	RarityTier  int     `json:"rarity_tier"`
	PointsDelta int     `json:"points_delta"`
}

// Resolve computes the outcome of a catch. It depends only on its arguments,
// so a catch can be reproduced from the match seed, player, cast sequence
// and hotspot alone.
func Resolve(matchSeed uint32, playerID string, seq int, hotspotID string, fish []Fish, scoring Scoring) (Outcome, error) {
	if len(fish) == 0 {
		return Outcome{}, ErrEmptyCatalog
	}

	rng := newMulberry32(CastSeed(matchSeed, playerID, seq, hotspotID))

	f := pickByRarity(fish, rng.next())
	weight := round2(lerp(f.WeightMin, f.WeightMax, rng.next()))
	length := round2(lerp(f.LengthMin, f.LengthMax, rng.next()))

	points := f.BasePoints *
		scoring.rarityMult(f.RarityTier) *
		(1 + scoring.WeightK*math.Sqrt(weight)) *
		(1 + scoring.LengthK*math.Sqrt(length))

	return Outcome{
		FishID:      f.ID,
		Weight:      weight,
		Length:      length,
		RarityTier:  f.RarityTier,
		PointsDelta: int(math.Max(0, math.Floor(points+0.5))),
	}, nil
}

// CastSeed mixes the identity of a cast into a non-zero 32 bit seed.
func CastSeed(matchSeed uint32, playerID string, seq int, hotspotID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(playerID + "|" + strconv.Itoa(seq) + "|" + hotspotID))

	x := h.Sum32() ^ matchSeed
	x ^= uint32(seq) * 2246822519
	x ^= x >> 13
	if x == 0 {
		return 1
	}
	return x
}

type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// next returns a float in [0, 1).
func (m *mulberry32) next() float64 {
	m.state += 0x6d2b79f5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

func pickByRarity(fish []Fish, unit float64) *Fish {
	total := 0.0
	for i := range fish {
		total += rarityWeight(fish[i].RarityTier)
	}

	roll := unit * total
	cursor := 0.0
	for i := range fish {
		cursor += rarityWeight(fish[i].RarityTier)
		if roll <= cursor {
			return &fish[i]
		}
	}
	return &fish[len(fish)-1]
}

func rarityWeight(tier int) float64 {
	return 1 / float64(max(1, tier))
}

func (scoring Scoring) rarityMult(tier int) float64 {
	mult, ok := scoring.RarityMults[strconv.Itoa(tier)]
	if !ok || math.IsNaN(mult) || math.IsInf(mult, 0) || mult <= 0 {
		return 1
	}
	return mult
}

func lerp(min, max, unit float64) float64 {
	if max <= min {
		return min
	}
	return min + (max-min)*unit
}

// round2 rounds half up to 2 decimals.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
