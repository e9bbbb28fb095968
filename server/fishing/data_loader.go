// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

import (
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

var (
	//go:embed data/hotspots.json
	hotspotsJSON []byte

	//go:embed data/fish.json
	fishJSON []byte

	//go:embed data/scoring.json
	scoringJSON []byte

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

type (
	Hotspot struct {
		ID         string      `json:"id"`
		Position   world.Vec2f `json:"position"`
		CastRadius float32     `json:"cast_radius"`
		Capacity   int         `json:"cap"`
		ZoneID     string      `json:"zone_id"`
		Kind       string      `json:"kind"`
	}

	Fish struct {
		ID         string  `json:"fish_id"`
		Name       string  `json:"name"`
		BasePoints float64 `json:"base_points"`
		WeightMin  float64 `json:"weight_min"`
		WeightMax  float64 `json:"weight_max"`
		LengthMin  float64 `json:"length_min"`
		LengthMax  float64 `json:"length_max"`
		RarityTier int     `json:"rarity_tier"`
	}

	// Scoring holds the constants of the points formula. RarityMults is keyed
	// by the decimal rarity tier.
	Scoring struct {
		WeightK     float64            `json:"weight_k"`
		LengthK     float64            `json:"length_k"`
		RarityMults map[string]float64 `json:"rarity_mults"`
	}

	// Pack is the immutable fishing configuration of a match.
	Pack struct {
		Hotspots []Hotspot
		Fish     []Fish
		Scoring  Scoring

		hotspotsByID map[string]*Hotspot
	}

	hotspotLoader struct {
		ID         string  `json:"id"`
		X          float32 `json:"x"`
		Y          float32 `json:"y"`
		CastRadius float32 `json:"cast_radius"`
		Capacity   int     `json:"cap"`
		ZoneID     string  `json:"zone_id"`
		Kind       string  `json:"kind"`
	}
)

// DefaultPack loads the fishing data that ships with the server.
func DefaultPack() (*Pack, error) {
	return ParsePack(hotspotsJSON, fishJSON, scoringJSON)
}

// ParsePack builds a Pack from the contents of hotspots.json, fish.json and scoring.json.
func ParsePack(hotspotsData, fishData, scoringData []byte) (*Pack, error) {
	var hotspots struct {
		Hotspots []hotspotLoader `json:"hotspots"`
	}
	if err := json.Unmarshal(hotspotsData, &hotspots); err != nil {
		return nil, fmt.Errorf("hotspots.json: %w", err)
	}

	var fish struct {
		Fish []Fish `json:"fish"`
	}
	if err := json.Unmarshal(fishData, &fish); err != nil {
		return nil, fmt.Errorf("fish.json: %w", err)
	}

	var scoring Scoring
	if err := json.Unmarshal(scoringData, &scoring); err != nil {
		return nil, fmt.Errorf("scoring.json: %w", err)
	}

	pack := &Pack{
		Fish:         fish.Fish,
		Scoring:      scoring,
		hotspotsByID: make(map[string]*Hotspot, len(hotspots.Hotspots)),
	}

	for _, h := range hotspots.Hotspots {
		if _, ok := pack.hotspotsByID[h.ID]; ok {
			return nil, fmt.Errorf("hotspots.json: duplicate hotspot %q", h.ID)
		}
		pack.Hotspots = append(pack.Hotspots, Hotspot{
			ID:         h.ID,
			Position:   world.Vec2f{X: h.X, Y: h.Y},
			CastRadius: h.CastRadius,
			Capacity:   h.Capacity,
			ZoneID:     h.ZoneID,
			Kind:       h.Kind,
		})
	}

	// Index after the slice stops growing.
	for i := range pack.Hotspots {
		pack.hotspotsByID[pack.Hotspots[i].ID] = &pack.Hotspots[i]
	}

	return pack, nil
}

// CheckZones returns an error if a hotspot names a zone the map lacks or sits outside its zone.
func (pack *Pack) CheckZones(m *world.Map) error {
	for _, h := range pack.Hotspots {
		zone, ok := m.Zone(h.ZoneID)
		if !ok {
			return fmt.Errorf("hotspots.json: hotspot %q has unknown zone %q", h.ID, h.ZoneID)
		}
		if !zone.Rect.Contains(h.Position) {
			return fmt.Errorf("hotspots.json: hotspot %q is outside zone %q", h.ID, h.ZoneID)
		}
	}
	return nil
}

// Hotspot returns the hotspot with the given id, or nil.
func (pack *Pack) Hotspot(id string) *Hotspot {
	return pack.hotspotsByID[id]
}

// Species returns the fish with the given id, or nil.
func (pack *Pack) Species(id string) *Fish {
	for i := range pack.Fish {
		if pack.Fish[i].ID == id {
			return &pack.Fish[i]
		}
	}
	return nil
}
