// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"math"
	"testing"

	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/identity"
	"github.com/stalcup-dev/riverboat-tournament/server/match"
	"github.com/stalcup-dev/riverboat-tournament/server/ratelimit"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

// testClient records everything the hub does to it.
type testClient struct {
	ClientData
	sent       []outbound
	kickCode   int
	kickReason string
	closed     bool
}

func newTestClient(sessionID string) *testClient {
	return &testClient{ClientData: ClientData{SessionID: sessionID}}
}

func (c *testClient) Init()                        {}
func (c *testClient) Close()                       { c.closed = true }
func (c *testClient) Send(out outbound)            { c.sent = append(c.sent, out) }
func (c *testClient) Kick(code int, reason string) { c.kickCode, c.kickReason = code, reason }
func (c *testClient) Destroy()                     {}
func (c *testClient) Data() *ClientData            { return &c.ClientData }

func (c *testClient) errorCodes() []string {
	var codes []string
	for _, e := range sentOf[ErrorMessage](c) {
		codes = append(codes, e.Code)
	}
	return codes
}

func (c *testClient) lastError() ErrorMessage {
	errs := sentOf[ErrorMessage](c)
	if len(errs) == 0 {
		return ErrorMessage{}
	}
	return errs[len(errs)-1]
}

func countCode(c *testClient, code string) int {
	n := 0
	for _, got := range c.errorCodes() {
		if got == code {
			n++
		}
	}
	return n
}

func sentOf[T any](c *testClient) []T {
	var out []T
	for _, message := range c.sent {
		if m, ok := message.(T); ok {
			out = append(out, m)
		}
	}
	return out
}

type testClock struct {
	ms int64
}

func (clock *testClock) now() int64 {
	return clock.ms
}

func (clock *testClock) advance(ms int64) {
	clock.ms += ms
}

func newTestHub(t *testing.T) (*Hub, *testClock) {
	t.Helper()

	w, err := world.DefaultMap()
	if err != nil {
		t.Fatal(err)
	}
	pack, err := fishing.DefaultPack()
	if err != nil {
		t.Fatal(err)
	}

	clock := &testClock{ms: 1_000_000}
	h := NewHub(HubOptions{
		ID:    "room-test",
		World: w,
		Pack:  pack,
		Seed:  12345,
		Now:   clock.now,
	})
	return h, clock
}

func envelope() Envelope {
	seq := 1.0
	return Envelope{V: ProtocolVersion, ClientSeq: &seq}
}

func send(h *Hub, client Client, in inbound) {
	h.handle(SignedInbound{Client: client, inbound: in})
}

func join(h *Hub, sessionID, name string) *testClient {
	client := newTestClient(sessionID)
	h.add(client)
	send(h, client, Join{Envelope: envelope(), Name: name})
	return client
}

// startMatch has host start the countdown and runs it out.
func startMatch(t *testing.T, h *Hub, clock *testClock, host Client) {
	t.Helper()
	send(h, host, HostStartMatch{Envelope: envelope()})
	clock.advance(match.CountdownDuration.Milliseconds())
	h.tick()
	if h.phase.Phase != match.PhaseMatch {
		t.Fatalf("expected phase %s, got %s", match.PhaseMatch, h.phase.Phase)
	}
}

func TestHub_Join(t *testing.T) {
	h, _ := newTestHub(t)

	a := join(h, "a", "chrone")
	b := join(h, "b", " Simpin ")

	if len(a.sent) == 0 {
		t.Fatal("expected messages")
	}
	if welcome, ok := a.sent[0].(Welcome); !ok || welcome.SessionID != "a" || welcome.Version != ProtocolVersion {
		t.Errorf("expected welcome first, got %#v", a.sent[0])
	}
	if len(sentOf[MatchState](b)) == 0 {
		t.Error("expected joiner to get match state")
	}

	if name := h.players["a"].Name; name != "Chrone" {
		t.Errorf("expected canonical name Chrone, got %q", name)
	}
	if name := h.players["b"].Name; name != "Simpin" {
		t.Errorf("expected canonical name Simpin, got %q", name)
	}
	if host := h.phase.HostSessionID; host != "a" {
		t.Errorf("expected first joiner to host, got %q", host)
	}
	if spawnA, spawnB := h.players["a"].Position, h.players["b"].Position; spawnB.X-spawnA.X != 32 {
		t.Errorf("expected spawns 32 apart, got %v and %v", spawnA, spawnB)
	}
	if summary := h.Summary(); summary.Players != 2 || summary.Status != match.StatusWaiting {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestHub_NameClaims(t *testing.T) {
	h, clock := newTestHub(t)

	a := join(h, "a", "Chrone")

	invalid := join(h, "x", "Nobody")
	if codes := invalid.errorCodes(); len(codes) != 1 || codes[0] != "NAME_INVALID" {
		t.Errorf("expected NAME_INVALID, got %v", codes)
	}
	if invalid.kickCode != CloseRejected {
		t.Errorf("expected close %d, got %d", CloseRejected, invalid.kickCode)
	}

	taken := join(h, "b", "CHRONE")
	if codes := taken.errorCodes(); len(codes) != 1 || codes[0] != "NAME_TAKEN" {
		t.Errorf("expected NAME_TAKEN, got %v", codes)
	}
	if taken.kickCode != CloseRejected {
		t.Errorf("expected close %d, got %d", CloseRejected, taken.kickCode)
	}
	if h.players["b"] != nil {
		t.Error("expected rejected player to be removed")
	}
	h.remove(invalid)
	h.remove(taken)

	h.players["a"].Score = 42
	h.players["a"].Wood = 2
	h.rtt["a"] = 300
	h.remove(a)

	clock.advance(1000)
	c := join(h, "c", "chrone")
	if len(c.errorCodes()) != 0 {
		t.Errorf("unexpected errors %v", c.errorCodes())
	}

	player := h.players["c"]
	if player == nil || player.Name != "Chrone" || !player.Connected {
		t.Fatalf("expected resumed player, got %+v", player)
	}
	if player.Score != 42 || player.Wood != 2 {
		t.Errorf("expected progress to carry over, got score=%d wood=%d", player.Score, player.Wood)
	}
	if h.players["a"] != nil {
		t.Error("expected old session to be gone")
	}
	if h.phase.HostSessionID != "c" {
		t.Errorf("expected host to follow resume, got %q", h.phase.HostSessionID)
	}
	if rtt := h.rtt["c"]; rtt != 300 {
		t.Errorf("expected rtt to follow resume, got %v", rtt)
	}
}

func TestHub_PhaseLock(t *testing.T) {
	h, _ := newTestHub(t)
	a := join(h, "a", "Chrone")
	before := h.players["a"].Position

	for _, in := range []inbound{
		Move{Envelope: envelope(), Dx: 1},
		GatherWood{Envelope: envelope()},
		BuildCanoe{Envelope: envelope()},
		CastStart{Envelope: envelope(), HotspotID: "hs_river_01"},
		CatchClick{Envelope: envelope(), OfferID: "offer_a_1"},
	} {
		a.sent = nil
		send(h, a, in)
		if codes := a.errorCodes(); len(codes) != 1 || codes[0] != string(match.Locked) {
			t.Errorf("%T: expected %s, got %v", in, match.Locked, codes)
		}
	}

	if after := h.players["a"].Position; after != before {
		t.Errorf("expected no movement, got %v -> %v", before, after)
	}
}

func TestHub_HostControls(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	b := join(h, "b", "Simpin")

	send(h, b, HostStartMatch{Envelope: envelope()})
	if err := b.lastError(); err.Code != string(match.NotHost) {
		t.Errorf("expected %s, got %q", match.NotHost, err.Code)
	}

	send(h, a, HostCancelCountdown{Envelope: envelope()})
	if err := a.lastError(); err.Code != string(match.WrongPhase) {
		t.Errorf("expected %s, got %q", match.WrongPhase, err.Code)
	}

	send(h, a, HostStartMatch{Envelope: envelope()})
	if h.phase.Phase != match.PhaseCountdown {
		t.Fatalf("expected countdown, got %s", h.phase.Phase)
	}
	if got := h.Summary(); got.Status != match.StatusWaiting {
		t.Errorf("expected countdown to be waiting, got %s", got.Status)
	}

	send(h, a, HostCancelCountdown{Envelope: envelope()})
	if h.phase.Phase != match.PhaseLobby {
		t.Fatalf("expected lobby, got %s", h.phase.Phase)
	}

	startMatch(t, h, clock, a)
	if h.phase.MatchEndMs-h.phase.MatchStartMs != match.MatchDuration.Milliseconds() {
		t.Errorf("unexpected match window %d..%d", h.phase.MatchStartMs, h.phase.MatchEndMs)
	}
	if got := h.Summary(); got.Status != match.StatusInProgress {
		t.Errorf("expected in progress, got %s", got.Status)
	}
}

func TestHub_GatherAndBuild(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	startMatch(t, h, clock, a)
	player := h.players["a"]

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_river_01"})
	if err := a.lastError(); err.Code != string(world.NeedCanoe) {
		t.Errorf("expected %s, got %q", world.NeedCanoe, err.Code)
	}

	send(h, a, GatherWood{Envelope: envelope()})
	if err := a.lastError(); err.Code != string(world.NotInForest) {
		t.Errorf("expected %s, got %q", world.NotInForest, err.Code)
	}

	player.Position = world.Vec2f{X: 300, Y: 300}
	send(h, a, GatherWood{Envelope: envelope()})
	send(h, a, GatherWood{Envelope: envelope()})
	if player.Wood != 1 {
		t.Errorf("expected 1 wood, got %d", player.Wood)
	}
	if err := a.lastError(); err.Code != string(world.GatherCooldown) || err.RetryAfterMs != world.GatherLockoutMs {
		t.Errorf("expected cooldown with retry %d, got %+v", world.GatherLockoutMs, err)
	}

	clock.advance(world.GatherLockoutMs)
	send(h, a, GatherWood{Envelope: envelope()})
	if player.Wood != 2 || player.Stats.WoodCollected != 2 {
		t.Errorf("expected 2 wood, got %d (%d collected)", player.Wood, player.Stats.WoodCollected)
	}

	send(h, a, BuildCanoe{Envelope: envelope()})
	if err := a.lastError(); err.Code != string(world.NeedMarina) {
		t.Errorf("expected %s, got %q", world.NeedMarina, err.Code)
	}

	player.Position = world.Vec2f{X: 800, Y: 1300}
	send(h, a, BuildCanoe{Envelope: envelope()})
	err := a.lastError()
	if err.Code != string(world.NeedWood) || err.Need != world.CanoeWoodCost || err.Have == nil || *err.Have != 2 {
		t.Errorf("expected need 3 have 2, got %+v", err)
	}

	player.Wood = 4
	send(h, a, BuildCanoe{Envelope: envelope()})
	if player.Boat != world.BoatCanoe || player.Wood != 1 {
		t.Errorf("expected canoe and 1 wood, got boat=%v wood=%d", player.Boat, player.Wood)
	}

	// Already built
	send(h, a, BuildCanoe{Envelope: envelope()})
	if player.Wood != 1 {
		t.Errorf("expected wood to be kept, got %d", player.Wood)
	}
}

func TestHub_WaterGate(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	startMatch(t, h, clock, a)
	player := h.players["a"]

	shore := world.Vec2f{X: 935, Y: 500}
	player.Position = shore

	move := Move{Envelope: envelope(), Dx: 1}
	send(h, a, move)
	send(h, a, move)
	if codes := a.errorCodes(); len(codes) != 1 || codes[0] != string(world.NeedCanoeForWater) {
		t.Errorf("expected one %s, got %v", world.NeedCanoeForWater, codes)
	}
	if player.Position != shore {
		t.Errorf("expected to stay on shore, got %v", player.Position)
	}

	clock.advance(waterErrorPeriodMs)
	send(h, a, move)
	if codes := a.errorCodes(); len(codes) != 2 {
		t.Errorf("expected a second error after %dms, got %v", waterErrorPeriodMs, codes)
	}

	player.Boat = world.BoatCanoe
	send(h, a, move)
	if want := (world.Vec2f{X: 935 + world.MoveSpeed, Y: 500}); player.Position != want {
		t.Errorf("expected %v, got %v", want, player.Position)
	}
	if player.Facing != world.DirectionRight {
		t.Errorf("expected to face right, got %v", player.Facing)
	}
}

func TestHub_FishingTimeline(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	b := join(h, "b", "Simpin")
	startMatch(t, h, clock, a)

	player := h.players["a"]
	player.Boat = world.BoatCanoe

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_nowhere"})
	if err := a.lastError(); err.Code != string(fishing.InvalidHotspot) {
		t.Errorf("expected %s, got %q", fishing.InvalidHotspot, err.Code)
	}

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_river_01"})
	if player.State != fishing.StateCasting {
		t.Fatalf("expected casting, got %s", player.State)
	}

	clock.advance(100)
	h.tick()
	offers := sentOf[BiteOffer](a)
	if len(offers) != 1 || player.State != fishing.StateOffered {
		t.Fatalf("expected one offer, got %d in state %s", len(offers), player.State)
	}
	if len(sentOf[BiteOffer](b)) != 0 {
		t.Error("expected offer to be private")
	}
	offer := offers[0]
	if offer.ExpiresMs-offer.IssuedMs != fishing.OfferWindowMs {
		t.Errorf("unexpected offer window %+v", offer)
	}

	send(h, a, CatchClick{Envelope: envelope(), OfferID: "offer_wrong"})
	if err := a.lastError(); err.Code != string(fishing.NoActiveCast) {
		t.Errorf("expected %s, got %q", fishing.NoActiveCast, err.Code)
	}

	clock.advance(500)
	send(h, a, CatchClick{Envelope: envelope(), OfferID: offer.OfferID})
	results := sentOf[CatchResult](b)
	if len(results) != 1 || !results[0].Success || results[0].PlayerID != "a" {
		t.Fatalf("expected broadcast success, got %+v", results)
	}
	if player.Score != results[0].PointsDelta || player.Stats.FishCount != 1 || player.SpeciesCount != 1 {
		t.Errorf("unexpected progress score=%d stats=%+v species=%d", player.Score, player.Stats, player.SpeciesCount)
	}
	if player.State != fishing.StateCooldown {
		t.Errorf("expected cooldown, got %s", player.State)
	}

	// Same click again
	send(h, a, CatchClick{Envelope: envelope(), OfferID: offer.OfferID})
	if err := a.lastError(); err.Code != string(fishing.NoActiveCast) {
		t.Errorf("expected %s, got %q", fishing.NoActiveCast, err.Code)
	}

	clock.advance(fishing.CooldownMs)
	h.tick()
	if player.State != fishing.StateIdle {
		t.Fatalf("expected idle after cooldown, got %s", player.State)
	}

	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_river_01"})
	err := a.lastError()
	if err.Code != string(fishing.HotspotDepleted) || err.RetryAfterMs <= 0 || err.RetryAfterMs > fishing.DepletionMs {
		t.Errorf("expected depleted hotspot, got %+v", err)
	}

	// Let an offer lapse on another hotspot
	send(h, a, CastStart{Envelope: envelope(), HotspotID: "hs_river_02"})
	h.tick()
	lapsed := player.OfferID
	if lapsed == "" {
		t.Fatal("expected an offer")
	}

	clock.advance(fishing.OfferWindowMs + fishing.DefaultGraceMs)
	h.tick()
	if player.State != fishing.StateOffered {
		t.Errorf("expected offer to survive until the grace ends, got %s", player.State)
	}

	clock.advance(1)
	h.tick()
	if player.State != fishing.StateCooldown {
		t.Errorf("expected cooldown after lapse, got %s", player.State)
	}
	results = sentOf[CatchResult](a)
	if last := results[len(results)-1]; last.Success || last.OfferID != lapsed {
		t.Errorf("expected failed result for %s, got %+v", lapsed, last)
	}
	if len(sentOf[CatchResult](b)) != 1 {
		t.Error("expected lapse to be private")
	}
}

func TestHub_ResultsOnce(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	startMatch(t, h, clock, a)
	h.players["a"].Score = 10

	clock.ms = h.phase.MatchEndMs
	h.tick()
	h.tick()
	clock.advance(TickPeriod.Milliseconds())
	h.tick()

	if h.phase.Phase != match.PhaseResults {
		t.Fatalf("expected results, got %s", h.phase.Phase)
	}
	results := sentOf[MatchResults](a)
	if len(results) != 1 {
		t.Fatalf("expected results once, got %d", len(results))
	}
	if lb := results[0].Leaderboard; len(lb) != 1 || lb[0].Name != "Chrone" || lb[0].Score != 10 {
		t.Errorf("unexpected leaderboard %+v", lb)
	}

	late := join(h, "b", "Simpin")
	if len(sentOf[MatchResults](late)) != 1 {
		t.Error("expected late joiner to get results")
	}
}

func TestHub_Reemit(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	initial := len(sentOf[MatchState](a))

	clock.advance(249)
	h.tick()
	if got := len(sentOf[MatchState](a)); got != initial {
		t.Errorf("expected no re-emit before 250ms, got %d", got-initial)
	}

	clock.advance(1)
	h.tick()
	clock.advance(750)
	h.tick()
	h.tick()
	if got := len(sentOf[MatchState](a)); got != initial+2 {
		t.Errorf("expected 2 re-emits, got %d", got-initial)
	}
}

func TestHub_Ping(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")

	t0 := float64(clock.ms - 400)
	send(h, a, Ping{Envelope: envelope(), T0ClientMs: &t0})
	send(h, a, Ping{Envelope: envelope(), T0ClientMs: &t0})

	pongs := sentOf[Pong](a)
	if len(pongs) != 1 || pongs[0].T0ClientMs != t0 || pongs[0].ServerMs != clock.ms {
		t.Fatalf("expected one pong, got %+v", pongs)
	}
	if rtt := h.rtt["a"]; rtt != 400 {
		t.Errorf("expected rtt 400, got %v", rtt)
	}
	if grace := h.graceMs("a"); grace != 140 {
		t.Errorf("expected grace 140, got %d", grace)
	}

	clock.advance(fishing.PingIntervalMs)
	t0 = float64(clock.ms - 200)
	send(h, a, Ping{Envelope: envelope(), T0ClientMs: &t0})
	if rtt := h.rtt["a"]; math.Abs(rtt-340) > 1e-9 {
		t.Errorf("expected smoothed rtt 340, got %v", rtt)
	}

	clock.advance(fishing.PingIntervalMs)
	nan := math.NaN()
	send(h, a, Ping{Envelope: envelope(), T0ClientMs: &nan})
	if len(sentOf[Pong](a)) != 2 {
		t.Error("expected non-finite t0 to be ignored")
	}
}

func TestHub_Envelope(t *testing.T) {
	h, _ := newTestHub(t)
	a := join(h, "a", "Chrone")

	nan := math.NaN()
	for _, e := range []Envelope{
		{V: "0.0.9", ClientSeq: envelope().ClientSeq},
		{V: ProtocolVersion},
		{V: ProtocolVersion, ClientSeq: &nan},
	} {
		send(h, a, Move{Envelope: e, Dx: 1})
	}
	send(h, a, InvalidInbound{messageType: "TELEPORT"})
	send(h, a, PayloadTooLarge{size: MaxInboundBytes + 1})

	want := []string{"ERR_PAYLOAD", "ERR_PAYLOAD", "ERR_PAYLOAD", "ERR_PAYLOAD", "ERR_PAYLOAD_TOO_LARGE"}
	codes := a.errorCodes()
	if len(codes) != len(want) {
		t.Fatalf("expected %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("expected %v, got %v", want, codes)
			break
		}
	}
	if violations := h.limiter.Violations("a"); violations != len(want) {
		t.Errorf("expected %d violations, got %d", len(want), violations)
	}
}

func TestHub_RateLimitKick(t *testing.T) {
	h, _ := newTestHub(t)
	a := join(h, "a", "Chrone")

	burst := int(ratelimit.DefaultPolicies[ratelimit.CategoryMove].Capacity)
	for i := 0; i < burst; i++ {
		send(h, a, Move{Envelope: envelope(), Dx: 1})
	}
	for i := 0; i < ratelimit.KickThreshold-1; i++ {
		send(h, a, Move{Envelope: envelope(), Dx: 1})
	}
	if a.kickCode != 0 {
		t.Fatalf("kicked early after %d violations", h.limiter.Violations("a"))
	}
	if err := a.lastError(); err.Code != "RATE_LIMITED" || err.RetryAfterMs <= 0 {
		t.Errorf("expected RATE_LIMITED with retry, got %+v", err)
	}
	if n := countCode(a, "RATE_LIMITED"); n != 1 {
		t.Errorf("expected one RATE_LIMITED while the bucket is empty, got %d", n)
	}

	send(h, a, Move{Envelope: envelope(), Dx: 1})
	if a.kickCode != CloseAbuse {
		t.Errorf("expected close %d, got %d", CloseAbuse, a.kickCode)
	}
	if n := countCode(a, "RATE_LIMITED"); n != 2 {
		t.Errorf("expected RATE_LIMITED on kick, got %d", n)
	}

	h.remove(a)
	if violations := h.limiter.Violations("a"); violations != 0 {
		t.Errorf("expected violations to be forgotten, got %d", violations)
	}
}

func TestHub_RateLimitWindow(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")

	burst := ratelimit.DefaultPolicies[ratelimit.CategoryMove].Capacity
	for i := 0; i < burst+3; i++ {
		send(h, a, Move{Envelope: envelope(), Dx: 1})
	}
	if n := countCode(a, "RATE_LIMITED"); n != 1 {
		t.Fatalf("expected one RATE_LIMITED, got %d", n)
	}
	retry := a.lastError().RetryAfterMs

	// The refilled token is spent, then the next denial opens a new window.
	clock.advance(retry + 10)
	send(h, a, Move{Envelope: envelope(), Dx: 1})
	send(h, a, Move{Envelope: envelope(), Dx: 1})
	if n := countCode(a, "RATE_LIMITED"); n != 2 {
		t.Errorf("expected a second RATE_LIMITED, got %d", n)
	}
	if violations := h.limiter.Violations("a"); violations != 4 {
		t.Errorf("expected every denial counted, got %d", violations)
	}
}

func TestHub_RoomFull(t *testing.T) {
	h, _ := newTestHub(t)

	for i := 0; i < MaxClients; i++ {
		h.add(newTestClient(string(rune('a' + i))))
	}

	extra := newTestClient("z")
	h.add(extra)
	if codes := extra.errorCodes(); len(codes) != 1 || codes[0] != "ROOM_FULL" {
		t.Errorf("expected ROOM_FULL, got %v", codes)
	}
	if extra.kickCode != CloseRejected {
		t.Errorf("expected close %d, got %d", CloseRejected, extra.kickCode)
	}
	if h.clients.Len != MaxClients || h.players["z"] != nil {
		t.Errorf("expected %d clients and no extra player, got %d", MaxClients, h.clients.Len)
	}

	// Never admitted, so nothing to undo
	h.remove(extra)
	if h.clients.Len != MaxClients {
		t.Errorf("expected %d clients, got %d", MaxClients, h.clients.Len)
	}
}

func TestHub_Cleanup(t *testing.T) {
	h, clock := newTestHub(t)
	a := join(h, "a", "Chrone")
	h.tick()

	h.remove(a)
	if !a.closed {
		t.Error("expected client to be closed")
	}
	player := h.players["a"]
	if player == nil || player.Connected {
		t.Fatalf("expected disconnected player to be kept, got %+v", player)
	}

	grace := identity.DisconnectGrace.Milliseconds()
	clock.advance(grace - 1)
	h.tick()
	if h.players["a"] == nil {
		t.Fatal("expected player to survive the grace period")
	}

	clock.advance(1)
	h.tick()
	if h.players["a"] != nil {
		t.Fatal("expected player to be cleaned up")
	}
	if h.phase.HostSessionID != "" {
		t.Errorf("expected host to be cleared, got %q", h.phase.HostSessionID)
	}
	if h.disposed {
		t.Fatal("disposed too early")
	}

	clock.advance(grace)
	h.tick()
	if !h.disposed {
		t.Error("expected empty room to be disposed")
	}
}
