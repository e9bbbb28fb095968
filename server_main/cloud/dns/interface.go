// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package dns

import (
	"net"
)

type DNS interface {
	// UpdateRoute points the name of a server slot at address.
	UpdateRoute(region string, slot int, address net.IP) (hostname string, err error)
}
