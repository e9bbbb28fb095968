// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var (
	//go:embed data/map_zones.json
	mapZonesJSON []byte

	//go:embed data/wood_spawns.json
	woodSpawnsJSON []byte

	json = jsoniter.ConfigCompatibleWithStandardLibrary

	ErrNoMarina = errors.New("world: map has no MARINA rect")
)

type (
	// mapLoader mirrors map_zones.json.
	mapLoader struct {
		Meta *struct {
			Width  float32 `json:"world_width"`
			Height float32 `json:"world_height"`
			Units  string  `json:"units"`
		} `json:"meta"`
		Zones []zoneLoader `json:"zones"`
	}

	zoneLoader struct {
		ID    string   `json:"id"`
		Kind  ZoneKind `json:"kind"`
		Shape string   `json:"shape"`
		Rect  *Rect    `json:"rect"`
	}

	// woodLoader mirrors wood_spawns.json.
	woodLoader struct {
		Spawns []struct {
			ID     string  `json:"id"`
			X      float32 `json:"x"`
			Y      float32 `json:"y"`
			ZoneID string  `json:"zone_id"`
		} `json:"spawns"`
	}
)

// DefaultMap loads the map that ships with the server.
func DefaultMap() (*Map, error) {
	return ParseMap(mapZonesJSON, woodSpawnsJSON)
}

// ParseMap builds a Map from map_zones.json and (optionally) wood_spawns.json contents.
// Zones that are not rectangles are skipped.
func ParseMap(zonesJSON, woodJSON []byte) (*Map, error) {
	var loader mapLoader
	if err := json.Unmarshal(zonesJSON, &loader); err != nil {
		return nil, fmt.Errorf("map_zones.json: %w", err)
	}

	m := &Map{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Units:  "px",
	}

	if meta := loader.Meta; meta != nil {
		if meta.Width > 0 {
			m.Width = meta.Width
		}
		if meta.Height > 0 {
			m.Height = meta.Height
		}
		if meta.Units != "" {
			m.Units = meta.Units
		}
	}

	marina := false
	for _, z := range loader.Zones {
		if !validZoneKind(z.Kind) {
			return nil, fmt.Errorf("map_zones.json: zone %q has unknown kind %q", z.ID, z.Kind)
		}
		if z.Shape != "rect" || z.Rect == nil {
			continue
		}
		if !z.Rect.Within(m.Width, m.Height) {
			return nil, fmt.Errorf("map_zones.json: zone %q does not fit in %vx%v", z.ID, m.Width, m.Height)
		}

		m.Zones = append(m.Zones, Zone{ID: z.ID, Kind: z.Kind, Rect: *z.Rect})

		if z.Kind == ZoneMarina && !marina {
			m.Marina = *z.Rect
			marina = true
		}
	}

	if !marina {
		return nil, ErrNoMarina
	}

	if len(woodJSON) > 0 {
		var wood woodLoader
		if err := json.Unmarshal(woodJSON, &wood); err != nil {
			return nil, fmt.Errorf("wood_spawns.json: %w", err)
		}

		for i, spawn := range wood.Spawns {
			id := strings.TrimSpace(spawn.ID)
			if id == "" {
				id = fmt.Sprintf("wood_%02d", i+1)
			}
			m.WoodNodes = append(m.WoodNodes, WoodNode{
				ID:       id,
				Position: Vec2f{X: spawn.X, Y: spawn.Y},
				ZoneID:   spawn.ZoneID,
			})
		}
	}

	m.spawn = m.chooseSpawn()
	return m, nil
}

func validZoneKind(kind ZoneKind) bool {
	switch kind {
	case ZoneInland, ZoneRiver, ZoneMarina, ZoneRestricted, ZoneForest, ZoneWater:
		return true
	default:
		return false
	}
}
