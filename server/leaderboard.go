// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/samber/lo"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
)

// emitResults computes the final results and broadcasts them. It only does
// so once per match.
func (h *Hub) emitResults() {
	if h.resultsEmitted {
		return
	}

	snapshots := lo.Map(h.sessionIDs(), func(id string, _ int) match.Snapshot {
		return h.players[id].snapshot()
	})

	results := match.ComputeResults(snapshots, h.phase.MatchEndMs)
	h.results = &results
	h.resultsEmitted = true

	h.clients.Broadcast(MatchResults(results))
	h.archive(results)

	if len(results.Leaderboard) > 0 {
		top := results.Leaderboard[0]
		h.logf("results players=%d champion=%s score=%d", len(results.Leaderboard), top.Name, top.Score)
	}
}
