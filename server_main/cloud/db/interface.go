// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

type Database interface {
	UpdateServer(server Server) error
	ReadServersByRegion(region string) (servers []Server, err error)
	// PutMatchResult is a no-op if the room was already archived.
	PutMatchResult(result MatchResult) error
}
