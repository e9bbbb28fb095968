// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

const (
	// MoveSpeed is how far a full intent moves a player in one MOVE.
	MoveSpeed = 6

	directionEpsilon = 0.0001
)

const (
	DirectionUp    = Direction("up")
	DirectionDown  = Direction("down")
	DirectionLeft  = Direction("left")
	DirectionRight = Direction("right")
)

// Direction is the way a player is facing.
type Direction string

// Boat is what a player travels on. BoatNone walks.
type Boat string

const (
	BoatNone  = Boat("none")
	BoatCanoe = Boat("canoe")
)

// Intent turns raw axis input into a movement intent. Each axis is clamped
// to [-1, 1] and diagonals are no faster than straight lines.
func Intent(dx, dy float64) Vec2f {
	intent := Vec2f{
		X: clamp(finite(float32(dx)), -1, 1),
		Y: clamp(finite(float32(dy)), -1, 1),
	}

	if intent.Length() > 1 {
		intent = intent.Norm()
	}
	return intent
}

// Facing returns the direction for the dominant axis of intent, or current
// if the intent is about zero.
func Facing(intent Vec2f, current Direction) Direction {
	abs := intent.Abs()
	if abs.X < directionEpsilon && abs.Y < directionEpsilon {
		if current == "" {
			return DirectionDown
		}
		return current
	}

	if abs.X >= abs.Y {
		if intent.X >= 0 {
			return DirectionRight
		}
		return DirectionLeft
	}

	if intent.Y >= 0 {
		return DirectionDown
	}
	return DirectionUp
}

// Step returns where intent takes a player from position, clamped to the world.
func (m *Map) Step(position, intent Vec2f) Vec2f {
	return m.Clamp(position.AddScaled(intent, MoveSpeed))
}

// CanEnter reports whether a player with boat may stand at point.
// Water requires a canoe.
func (m *Map) CanEnter(point Vec2f, boat Boat) bool {
	return boat == BoatCanoe || !m.In(ZoneWater, point)
}
