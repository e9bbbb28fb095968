// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/identity"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/ratelimit"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

const (
	// MaxClients is the most sockets a room accepts at once.
	MaxClients = 8

	TickPeriod      = 100 * time.Millisecond
	HeartbeatPeriod = 5 * time.Second

	waterErrorPeriodMs = 500
	matchSeedMax       = 2_147_483_647
)

// Joiners get the match state again after these delays in case the first
// one raced their client's handlers.
var reemitDelaysMs = [...]int64{250, 1000}

type (
	// HubOptions configures a Hub. World and Pack are required.
	HubOptions struct {
		ID    string
		Name  string
		World *world.Map
		Pack  *fishing.Pack
		// Seed of the catch resolver. Random if 0.
		Seed  uint32
		Cloud Cloud
		// CatchLog is a CSV file to append catches to, if not empty.
		CatchLog string
		// Now returns unix millis. Defaults to the wall clock.
		Now func() int64
		// OnDispose is called on the hub goroutine after the hub stops.
		OnDispose func(h *Hub)
	}

	// Hub is one match. It owns all the state of the match, which is only
	// touched by its own goroutine.
	Hub struct {
		ID        string
		name      string
		world     *world.Map
		pack      *fishing.Pack
		seed      uint32
		cloud     Cloud
		catchLog  *catchLogger
		createdMs int64

		clients  ClientList // implemented as double-linked list
		players  map[string]*Player
		runtimes map[string]*runtime
		phase    match.State

		depletion      *fishing.Depletion
		limiter        *ratelimit.Limiter
		rtt            map[string]float64
		lastPing       map[string]int64
		lastWaterError map[string]int64
		activity       map[string]int

		results        *match.Results
		resultsEmitted bool
		reemits        []int64

		funcBenches []funcBench

		// -1 while anyone is in the room.
		emptySinceMs int64
		disposed     bool

		// Served atomically to HTTP
		summary atomic.Value

		// Inbound channels
		inbound    chan SignedInbound
		register   chan Client
		unregister chan Client

		quit      chan struct{}
		quitOnce  sync.Once
		done      chan struct{}
		onDispose func(h *Hub)

		now func() int64
	}
)

func NewHub(options HubOptions) *Hub {
	now := options.Now
	if now == nil {
		now = unixMillis
	}

	seed := options.Seed
	if seed == 0 {
		seed = uint32(rand.IntN(matchSeedMax-1)) + 1
	}

	c := options.Cloud
	if c == nil {
		c = Offline{}
	}

	name := options.Name
	if name == "" {
		name = defaultRoomName(options.ID)
	}

	createdMs := now()
	h := &Hub{
		ID:             options.ID,
		name:           name,
		world:          options.World,
		pack:           options.Pack,
		seed:           seed,
		cloud:          c,
		createdMs:      createdMs,
		players:        make(map[string]*Player),
		runtimes:       make(map[string]*runtime),
		phase:          match.NewState(),
		depletion:      fishing.NewDepletion(fishing.DepletionMs),
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultPolicies, ratelimit.KickThreshold),
		rtt:            make(map[string]float64),
		lastPing:       make(map[string]int64),
		lastWaterError: make(map[string]int64),
		activity:       make(map[string]int),
		emptySinceMs:   createdMs,
		inbound:        make(chan SignedInbound, 16+MaxClients*2),
		register:       make(chan Client),
		unregister:     make(chan Client, MaxClients*2),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		onDispose:      options.OnDispose,
		now:            now,
	}
	if options.CatchLog != "" {
		h.catchLog = newCatchLogger(options.CatchLog)
	}
	h.updateSummary(createdMs)

	h.logf("created zones=%d hotspots=%d fish=%d match_seed=%d", len(h.world.Zones), len(h.pack.Hotspots), len(h.pack.Fish), h.seed)
	return h
}

func defaultRoomName(id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return "Match " + id
}

// Run serves the hub until it is disposed or stopped.
func (h *Hub) Run() {
	tickTicker := time.NewTicker(TickPeriod)
	heartbeatTicker := time.NewTicker(HeartbeatPeriod)
	debugTicker := time.NewTicker(DebugPeriod)

	defer func() {
		tickTicker.Stop()
		heartbeatTicker.Stop()
		debugTicker.Stop()
		h.teardown()
	}()

	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				h.handle(in)

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case <-tickTicker.C:
			h.tick()
			if h.disposed {
				return
			}
		case <-heartbeatTicker.C:
			h.heartbeat()
		case <-debugTicker.C:
			h.Debug()
		case <-h.quit:
			return
		}
	}
}

// Register hands a client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Stop asks the hub to close all of its clients and return from Run.
func (h *Hub) Stop() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) push(in SignedInbound) bool {
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) teardown() {
	close(h.done)

	for client := h.clients.First; client != nil; client = h.clients.Remove(client) {
		client.Close()
	}

	h.players = nil
	h.runtimes = nil
	h.rtt = nil
	h.lastPing = nil
	h.lastWaterError = nil

	if h.catchLog != nil {
		h.catchLog.Close()
	}

	h.logf("disposed")
	if h.onDispose != nil {
		h.onDispose(h)
	}
}

func (h *Hub) add(client Client) {
	data := client.Data()
	data.Hub = h
	client.Init()

	if h.clients.Len >= MaxClients {
		client.Send(errorMessage("ROOM_FULL", "Room is full."))
		client.Kick(CloseRejected, "ROOM_FULL")
		return
	}

	h.clients.Add(client)

	nowMs := h.now()
	sessionID := data.SessionID
	h.players[sessionID] = newPlayer(sessionID, h.world.Spawn(h.clients.Len-1), nowMs)
	if h.runtimes[sessionID] == nil {
		h.runtimes[sessionID] = newRuntime()
	}
	h.phase.Claim(sessionID)
	h.emptySinceMs = -1
	h.updateSummary(nowMs)

	h.logf("join session_id=%s clients=%d", sessionID, h.clients.Len)

	client.Send(Welcome{
		SessionID: sessionID,
		Version:   ProtocolVersion,
		World:     h.world,
		Hotspots:  h.pack.Hotspots,
	})

	h.emitMatchState(nil)
	for _, delay := range reemitDelaysMs {
		h.reemits = append(h.reemits, nowMs+delay)
	}

	if h.phase.Phase == match.PhaseResults && h.results != nil {
		client.Send(MatchResults(*h.results))
	}
}

func (h *Hub) remove(client Client) {
	client.Close()

	sessionID := client.Data().SessionID
	if h.clients.Find(sessionID) != client {
		// Was never admitted.
		return
	}
	h.clients.Remove(client)

	if player := h.players[sessionID]; player != nil {
		player.Connected = false
		player.LastSeenMs = h.now()
		player.Reset()
	}

	violations := h.limiter.Violations(sessionID)
	delete(h.lastPing, sessionID)
	delete(h.lastWaterError, sessionID)
	h.limiter.Forget(sessionID)
	h.updateSummary(h.now())

	h.logf("leave session_id=%s clients=%d violations=%d grace_ms=%d", sessionID, h.clients.Len, violations, identity.DisconnectGrace.Milliseconds())
}

// handle checks an inbound against the envelope and rate limits before
// letting it act.
func (h *Hub) handle(in SignedInbound) {
	client := in.Client
	sessionID := client.Data().SessionID

	// If not in this hub the message is old
	if h.clients.Find(sessionID) != client {
		return
	}

	if e, ok := in.inbound.(enveloped); ok && !e.envelope().Valid() {
		client.Send(errorMessage("ERR_PAYLOAD", "Invalid protocol envelope."))
		h.violation(client, "invalid_envelope")
		return
	}

	if l, ok := in.inbound.(limited); ok {
		nowMs := h.now()
		category := l.category()
		if !h.limiter.Allow(sessionID, category, nowMs) {
			if retryAfterMs, notify := h.limiter.Deny(sessionID, category, nowMs); notify {
				message := errorMessage("RATE_LIMITED", "Too many messages.")
				message.RetryAfterMs = retryAfterMs
				client.Send(message)
			}
			h.violation(client, string(category)+":rate_limited")
			return
		}
	}

	in.Inbound(h, client, h.players[sessionID])
}

// violation counts abuse against a client, kicking it at the threshold.
func (h *Hub) violation(client Client, reason string) {
	sessionID := client.Data().SessionID
	count, kick := h.limiter.Violation(sessionID)

	if count%10 == 0 {
		h.logf("rate_violation session_id=%s count=%d reason=%s", sessionID, count, reason)
	}

	if !kick {
		return
	}

	h.logf("kick session_id=%s reason=rate_limit_abuse count=%d", sessionID, count)
	client.Send(errorMessage("RATE_LIMITED", "Too many messages."))
	client.Kick(CloseAbuse, "RATE_LIMITED")
}

// rejectJoin refuses a name claim and ends the session.
func (h *Hub) rejectJoin(client Client, code, message string) {
	sessionID := client.Data().SessionID
	client.Send(errorMessage(code, message))

	delete(h.players, sessionID)
	delete(h.runtimes, sessionID)
	delete(h.lastPing, sessionID)

	client.Kick(CloseRejected, code)
}

// resume moves a disconnected player's record onto sessionID, replacing the
// record sessionID got when it connected.
func (h *Hub) resume(previous *Player, sessionID, name string, nowMs int64) {
	oldSessionID := previous.SessionID

	delete(h.players, sessionID)
	delete(h.players, oldSessionID)

	previous.SessionID = sessionID
	previous.Name = name
	previous.Connected = true
	previous.LastSeenMs = nowMs
	h.players[sessionID] = previous

	h.rebind(oldSessionID, sessionID)
	if h.phase.HostSessionID == oldSessionID {
		h.phase.HostSessionID = sessionID
	}

	h.logf("resume name=%s old_session_id=%s new_session_id=%s", name, oldSessionID, sessionID)
}

// rebind moves per session state that survives a disconnect.
func (h *Hub) rebind(from, to string) {
	rt := h.runtimes[from]
	if rt == nil {
		rt = newRuntime()
	}
	delete(h.runtimes, from)
	h.runtimes[to] = rt

	if rtt, ok := h.rtt[from]; ok {
		delete(h.rtt, from)
		h.rtt[to] = rtt
	}
}

func (h *Hub) runtimeOf(sessionID string) *runtime {
	rt := h.runtimes[sessionID]
	if rt == nil {
		rt = newRuntime()
		h.runtimes[sessionID] = rt
	}
	return rt
}

// gameplay sends PHASE_LOCKED and returns false unless the match is being played.
func (h *Hub) gameplay(client Client) bool {
	if reject := h.phase.Phase.Gameplay(); reject != "" {
		client.Send(errorMessage(string(reject), "Action is blocked in current phase."))
		return false
	}
	return true
}

func (h *Hub) graceMs(sessionID string) int64 {
	rtt, ok := h.rtt[sessionID]
	if !ok {
		rtt = -1
	}
	return fishing.GraceMs(rtt)
}

// sessionIDs returns the ids of all players in order.
func (h *Hub) sessionIDs() []string {
	ids := make([]string, 0, len(h.players))
	for id := range h.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) claimants() []identity.Claimant {
	claimants := make([]identity.Claimant, 0, len(h.players))
	for _, id := range h.sessionIDs() {
		claimants = append(claimants, h.players[id].claimant())
	}
	return claimants
}

func (h *Hub) emitMatchState(target Client) {
	state := MatchState{State: h.phase, ServerMs: h.now()}
	if target != nil {
		target.Send(state)
		return
	}
	h.clients.Broadcast(state)
}

func (h *Hub) heartbeat() {
	h.clients.Broadcast(ServerHeartbeat{ServerMs: h.now(), Phase: h.phase.Phase})
}

func (h *Hub) logf(format string, args ...interface{}) {
	log.Printf("[room:%s] "+format, append([]interface{}{h.ID}, args...)...)
}
