// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

type Filesystem interface {
	// UploadFile stores data under key, replacing any previous object.
	UploadFile(key string, secondsCache int, data []byte) error
}
