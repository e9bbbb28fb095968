// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

const (
	// GatherLockoutMs is the time between two successful wood gathers.
	GatherLockoutMs = 1750

	CanoeWoodCost = 3
)

const (
	NotInForest       = Reject("NOT_IN_FOREST")
	GatherCooldown    = Reject("GATHER_COOLDOWN")
	NeedMarina        = Reject("NEED_MARINA")
	NeedWood          = Reject("NEED_WOOD")
	NeedCanoe         = Reject("NEED_CANOE")
	NeedCanoeForWater = Reject("NEED_CANOE_FOR_WATER")
)

// Reject is an error code sent back to the player. The empty Reject means accepted.
type Reject string

// CheckGather validates gathering wood at position.
func (m *Map) CheckGather(position Vec2f, lockoutUntilMs, nowMs int64) Reject {
	if !m.In(ZoneForest, position) {
		return NotInForest
	}
	if lockoutUntilMs > nowMs {
		return GatherCooldown
	}
	return ""
}

// CheckBuild validates building a canoe at position with wood.
func (m *Map) CheckBuild(position Vec2f, wood int) Reject {
	if !m.Marina.Contains(position) {
		return NeedMarina
	}
	if wood < CanoeWoodCost {
		return NeedWood
	}
	return ""
}

// CheckFish validates that boat can be fished from.
func CheckFish(boat Boat) Reject {
	if boat != BoatCanoe {
		return NeedCanoe
	}
	return ""
}
