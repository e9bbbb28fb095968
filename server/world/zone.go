// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"github.com/chewxy/math32"
)

const (
	ZoneInland     = ZoneKind("INLAND")
	ZoneRiver      = ZoneKind("RIVER")
	ZoneMarina     = ZoneKind("MARINA")
	ZoneRestricted = ZoneKind("RESTRICTED")
	ZoneForest     = ZoneKind("FOREST")
	ZoneWater      = ZoneKind("WATER")

	// Used when the data does not say how big the world is.
	DefaultWidth  = 1000
	DefaultHeight = 700

	// Spawn layout used when no inland zone has a free spot.
	spawnFallbackX = 620
	spawnFallbackY = 860
	spawnStep      = 32
)

type (
	ZoneKind string

	// Zone is an immutable, kind tagged region of the map.
	Zone struct {
		ID   string   `json:"id"`
		Kind ZoneKind `json:"kind"`
		Rect Rect     `json:"rect"`
	}

	// WoodNode is a decorative wood pickup location.
	WoodNode struct {
		ID       string `json:"id"`
		Position Vec2f  `json:"position"`
		ZoneID   string `json:"zone_id,omitempty"`
	}

	// Map is the static world of one match. It is never mutated after loading.
	Map struct {
		Width     float32    `json:"world_width"`
		Height    float32    `json:"world_height"`
		Units     string     `json:"units"`
		Zones     []Zone     `json:"zones"`
		Marina    Rect       `json:"marina"`
		WoodNodes []WoodNode `json:"wood_nodes"`
		spawn     Vec2f
	}
)

// In returns true if the point is inside any zone of the kind.
func (m *Map) In(kind ZoneKind, point Vec2f) bool {
	for i := range m.Zones {
		zone := &m.Zones[i]
		if zone.Kind == kind && zone.Rect.Contains(point) {
			return true
		}
	}
	return false
}

// Zone finds a zone by id.
func (m *Map) Zone(id string) (Zone, bool) {
	for _, zone := range m.Zones {
		if zone.ID == id {
			return zone, true
		}
	}
	return Zone{}, false
}

// Clamp keeps a point inside the world.
func (m *Map) Clamp(point Vec2f) Vec2f {
	point.X = clamp(point.X, 0, m.Width)
	point.Y = clamp(point.Y, 0, m.Height)
	return point
}

// Spawn returns where the nth joiner (starting at 0) appears.
func (m *Map) Spawn(index int) Vec2f {
	if index < 0 {
		index = 0
	}
	spawn := m.spawn
	spawn.X = clamp(spawn.X+float32(index*spawnStep), 0, m.Width)
	return spawn
}

// chooseSpawn picks a point inside the first inland zone that is neither
// restricted nor water.
func (m *Map) chooseSpawn() Vec2f {
	for _, zone := range m.Zones {
		if zone.Kind != ZoneInland {
			continue
		}

		candidate := Vec2f{
			X: zone.Rect.X + math32.Floor(zone.Rect.W*0.35),
			Y: zone.Rect.Y + math32.Floor(zone.Rect.H*0.72),
		}

		if !m.In(ZoneRestricted, candidate) && !m.In(ZoneWater, candidate) {
			return candidate
		}
	}

	return Vec2f{X: spawnFallbackX, Y: spawnFallbackY}
}
