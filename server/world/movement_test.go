// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m, err := ParseMap([]byte(`{
		"meta": {"world_width": 500, "world_height": 400},
		"zones": [
			{"id": "land", "kind": "INLAND", "shape": "rect", "rect": {"x": 0, "y": 0, "w": 200, "h": 400}},
			{"id": "dock", "kind": "MARINA", "shape": "rect", "rect": {"x": 150, "y": 300, "w": 50, "h": 50}},
			{"id": "pond", "kind": "WATER", "shape": "rect", "rect": {"x": 200, "y": 0, "w": 100, "h": 400}}
		]
	}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestIntent(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   Vec2f
	}{
		{0, 0, Vec2f{}},
		{1, 0, Vec2f{X: 1}},
		{5, -9, Vec2f{X: float32(math.Sqrt2 / 2), Y: -float32(math.Sqrt2 / 2)}},
		{0.5, 0.5, Vec2f{X: 0.5, Y: 0.5}},
		{math.NaN(), 1, Vec2f{Y: 1}},
		{math.Inf(-1), -0.25, Vec2f{Y: -0.25}},
	}

	for _, test := range tests {
		got := Intent(test.dx, test.dy)
		if math32.Abs(got.X-test.want.X) > 1e-6 || math32.Abs(got.Y-test.want.Y) > 1e-6 {
			t.Errorf("Intent(%v, %v): expected %v got %v", test.dx, test.dy, test.want, got)
		}
		if got.Length() > 1+1e-6 {
			t.Errorf("Intent(%v, %v) is faster than a straight line: %v", test.dx, test.dy, got.Length())
		}
	}
}

func TestFacing(t *testing.T) {
	tests := []struct {
		intent  Vec2f
		current Direction
		want    Direction
	}{
		{Vec2f{X: 1}, DirectionUp, DirectionRight},
		{Vec2f{X: -1}, DirectionUp, DirectionLeft},
		{Vec2f{Y: 1}, DirectionUp, DirectionDown},
		{Vec2f{Y: -1}, DirectionDown, DirectionUp},
		{Vec2f{X: 0.5, Y: 0.5}, DirectionUp, DirectionRight},
		{Vec2f{X: 0.00001, Y: -0.00001}, DirectionLeft, DirectionLeft},
		{Vec2f{}, "", DirectionDown},
	}

	for _, test := range tests {
		if got := Facing(test.intent, test.current); got != test.want {
			t.Errorf("Facing(%v, %q): expected %q got %q", test.intent, test.current, test.want, got)
		}
	}
}

func TestStepClampsToWorld(t *testing.T) {
	m := testMap(t)

	got := m.Step(Vec2f{X: 2, Y: 398}, Vec2f{X: -1, Y: 1})
	if got.X != 0 || got.Y != 400 {
		t.Errorf("expected {0 400} got %v", got)
	}

	got = m.Step(Vec2f{X: 10, Y: 10}, Vec2f{X: 1})
	if got.X != 10+MoveSpeed || got.Y != 10 {
		t.Errorf("expected {%d 10} got %v", 10+MoveSpeed, got)
	}
}

func TestCanEnterWater(t *testing.T) {
	m := testMap(t)

	shore := Vec2f{X: 199, Y: 10}
	water := Vec2f{X: 200, Y: 10}

	if !m.CanEnter(shore, BoatNone) {
		t.Error("expected walker on shore")
	}
	if m.CanEnter(water, BoatNone) {
		t.Error("expected walker kept out of water (edges are inclusive)")
	}
	if !m.CanEnter(water, BoatCanoe) {
		t.Error("expected canoe on water")
	}
}
