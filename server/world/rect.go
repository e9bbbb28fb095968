// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// Rect is an axis aligned rectangle with its origin at the top left corner.
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Contains includes the edges of the rectangle.
func (r Rect) Contains(point Vec2f) bool {
	return point.X >= r.X && point.X <= r.X+r.W && point.Y >= r.Y && point.Y <= r.Y+r.H
}

// Within returns true if the rectangle is non-negative and fits in a world of the given size.
func (r Rect) Within(width, height float32) bool {
	return r.X >= 0 && r.Y >= 0 && r.W >= 0 && r.H >= 0 && r.X+r.W <= width && r.Y+r.H <= height
}
