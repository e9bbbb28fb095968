// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"strings"
)

// AllowedNames are the only names a player may claim, in their stored casing.
var AllowedNames = [...]string{
	"Chrone",
	"Simpin",
	"Hankey",
	"Reece",
	"Sinjoir",
	"ComputerDude04",
	"Zagriban",
	"TankDaddy",
}

// CanonicalName matches raw against AllowedNames ignoring case and
// surrounding space.
func CanonicalName(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, name := range AllowedNames {
		if strings.EqualFold(trimmed, name) {
			return name, true
		}
	}
	return "", false
}
