// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/finnbear/moderation"
)

const (
	roomNameMinLength = 1
	roomNameMaxLength = 32
)

func trimUtf8(in string, low, high int) (str string, ok bool) {
	if !utf8.ValidString(in) {
		return "", false
	}

	str = strings.TrimSpace(in)
	str = strings.TrimFunc(str, func(r rune) bool {
		// NOTE: The following characters are not detected by
		// unicode.IsSpace() but show up as blank

		// https://www.compart.com/en/unicode/U+2800
		// https://www.compart.com/en/unicode/U+200B
		return r == 0x2800 || r == 0x200B
	})

	// Too long but can resize down
	if len(str) > high {
		var builder strings.Builder
		for _, r := range str {
			if builder.Len()+utf8.RuneLen(r) > high {
				break
			}
			builder.WriteRune(r)
		}
		str = strings.TrimSpace(builder.String())
	}

	if len(str) < low {
		return "", false
	}
	return str, true
}

// sanitizeRoomName cleans a lobby-visible room name. Names that cannot be
// salvaged are rejected so the caller can fall back to a default.
func sanitizeRoomName(text string) (string, bool) {
	// Brackets are used in formatting, * is used for censoring
	const removals = "()[]{}*"
	for i := 0; i < len(removals); i++ {
		text = strings.ReplaceAll(text, removals[i:i+1], "")
	}

	text = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, text)

	text, ok := trimUtf8(text, roomNameMinLength, roomNameMaxLength)
	if !ok {
		return "", false
	}

	result := moderation.Scan(text)
	if result.Is(moderation.Inappropriate) {
		if result.Is(moderation.Inappropriate & moderation.Moderate) {
			return "", false
		}
		text, _ = moderation.Censor(text, moderation.Inappropriate)
	}
	return text, true
}
