// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/matchmaker"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

type (
	// RoomSummary is how a room appears in the lobby list.
	RoomSummary struct {
		RoomID     string       `json:"roomId"`
		Name       string       `json:"name"`
		Players    int          `json:"players"`
		MaxPlayers int          `json:"maxPlayers"`
		AgeMs      int64        `json:"age_ms"`
		Status     match.Status `json:"status"`
		CreatedMs  int64        `json:"-"`
	}

	DirectoryOptions struct {
		World     *world.Map
		Pack      *fishing.Pack
		Registry  *matchmaker.Registry
		RoomCodes *matchmaker.RoomCodes
		Cloud     Cloud
		CatchLog  string
		Now       func() int64
	}

	// Directory creates and finds the hubs of a server. It is safe for
	// concurrent use.
	Directory struct {
		mu   deadlock.RWMutex
		hubs map[string]*Hub

		world     *world.Map
		pack      *fishing.Pack
		registry  *matchmaker.Registry
		roomCodes *matchmaker.RoomCodes
		cloud     Cloud
		catchLog  string
		now       func() int64
	}
)

func NewDirectory(options DirectoryOptions) *Directory {
	now := options.Now
	if now == nil {
		now = unixMillis
	}
	c := options.Cloud
	if c == nil {
		c = Offline{}
	}
	return &Directory{
		hubs:      make(map[string]*Hub),
		world:     options.World,
		pack:      options.Pack,
		registry:  options.Registry,
		roomCodes: options.RoomCodes,
		cloud:     c,
		catchLog:  options.CatchLog,
		now:       now,
	}
}

// Create starts a new room and issues its join code.
func (d *Directory) Create(name string) (*Hub, matchmaker.Entry, error) {
	id := uuid.NewString()

	entry, err := d.registry.Create(id, d.now())
	if err != nil {
		return nil, matchmaker.Entry{}, fmt.Errorf("create room %s: %w", id, err)
	}
	d.roomCodes.Set(entry)

	hub := NewHub(HubOptions{
		ID:        id,
		Name:      name,
		World:     d.world,
		Pack:      d.pack,
		Cloud:     d.cloud,
		CatchLog:  d.catchLog,
		Now:       d.now,
		OnDispose: d.remove,
	})

	d.mu.Lock()
	d.hubs[id] = hub
	d.mu.Unlock()

	go hub.Run()
	return hub, entry, nil
}

// Get returns the room with the id, or nil.
func (d *Directory) Get(id string) *Hub {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hubs[id]
}

// List returns the rooms that are waiting for players, youngest first.
func (d *Directory) List() []RoomSummary {
	nowMs := d.now()

	waiting := lo.Filter(d.summaries(), func(summary RoomSummary, _ int) bool {
		return summary.Status == match.StatusWaiting
	})

	for i := range waiting {
		waiting[i].AgeMs = max(0, nowMs-waiting[i].CreatedMs)
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].AgeMs < waiting[j].AgeMs
	})
	return waiting
}

// Load returns the number of rooms and connected players.
func (d *Directory) Load() (rooms, players int) {
	summaries := d.summaries()
	return len(summaries), lo.SumBy(summaries, func(summary RoomSummary) int {
		return summary.Players
	})
}

func (d *Directory) summaries() []RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return lo.MapToSlice(d.hubs, func(_ string, hub *Hub) RoomSummary {
		return hub.Summary()
	})
}

// remove forgets a disposed hub and its join code.
func (d *Directory) remove(hub *Hub) {
	d.mu.Lock()
	delete(d.hubs, hub.ID)
	d.mu.Unlock()

	d.registry.DeleteTarget(hub.ID)
	d.roomCodes.Delete(hub.ID)
}

// Serve keeps the cloud informed and expires join codes until ctx is done.
func (d *Directory) Serve(ctx context.Context, sweepPeriod time.Duration) {
	if sweepPeriod <= 0 {
		sweepPeriod = matchmaker.SweepPeriod
	}
	sweepTicker := time.NewTicker(sweepPeriod)
	cloudTicker := time.NewTicker(d.cloud.UpdatePeriod())
	defer sweepTicker.Stop()
	defer cloudTicker.Stop()

	d.updateCloud()

	for {
		select {
		case <-sweepTicker.C:
			nowMs := d.now()
			if removed := d.registry.CleanupExpired(nowMs); removed > 0 {
				log.Printf("[matchmaker] cleanup removed=%d", removed)
			}
			if removed := d.roomCodes.CleanupExpired(nowMs); removed > 0 {
				log.Printf("[matchmaker] room_code_cleanup removed=%d", removed)
			}
		case <-cloudTicker.C:
			d.updateCloud()
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops every hub and waits for them, or for ctx.
func (d *Directory) Shutdown(ctx context.Context) error {
	d.mu.RLock()
	hubs := lo.Values(d.hubs)
	d.mu.RUnlock()

	for _, hub := range hubs {
		hub.Stop()
	}
	for _, hub := range hubs {
		select {
		case <-hub.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Summary is safe to call from any goroutine.
func (h *Hub) Summary() RoomSummary {
	return h.summary.Load().(RoomSummary)
}

func (h *Hub) updateSummary(nowMs int64) {
	h.summary.Store(RoomSummary{
		RoomID:     h.ID,
		Name:       h.name,
		Players:    h.clients.Len,
		MaxPlayers: MaxClients,
		AgeMs:      max(0, nowMs-h.createdMs),
		Status:     h.phase.Phase.Status(),
		CreatedMs:  h.createdMs,
	})
}
