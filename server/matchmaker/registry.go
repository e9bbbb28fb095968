// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package matchmaker

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"
)

const (
	// CodeAlphabet leaves out I, L, O, 0 and 1.
	CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	CodeLength   = 5
	DefaultTTL   = 2 * time.Hour

	// SweepPeriod is how often expired codes should be cleaned up.
	SweepPeriod = 10 * time.Minute

	maxCodeAttempts = 256
)

const (
	StatusOK      = Status("ok")
	StatusInvalid = Status("invalid")
	StatusExpired = Status("expired")
)

var (
	ErrExhausted = errors.New("matchmaker: no unique code after max attempts")

	codePattern = regexp.MustCompile("^[" + CodeAlphabet + "]{5}$")
)

type (
	// Entry binds a join code to the room it was issued for.
	Entry struct {
		Code        string `json:"code"`
		TargetID    string `json:"roomId"`
		CreatedAtMs int64  `json:"created_at_ms"`
	}

	// Status is the outcome of a Lookup.
	Status string

	// Lookup is the result of Registry.Lookup. Entry is only set for StatusOK.
	Lookup struct {
		Status Status
		Entry  Entry
	}

	// Registry issues short codes for rooms. Codes are unique among live
	// entries. It is safe for concurrent use.
	Registry struct {
		mu      deadlock.Mutex
		entries map[string]Entry
		ttlMs   int64
		intn    func(n int) int
	}
)

// NewRegistry creates a Registry whose codes expire after ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		entries: make(map[string]Entry),
		ttlMs:   ttl.Milliseconds(),
		intn:    rand.IntN,
	}
}

// NormalizeCode trims and uppercases a code, returning false if it is not
// well formed.
func NormalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", false
	}
	return code, true
}

func (r *Registry) expired(entry Entry, nowMs int64) bool {
	return nowMs-entry.CreatedAtMs >= r.ttlMs
}

func (r *Registry) generate() string {
	var b [CodeLength]byte
	for i := range b {
		b[i] = CodeAlphabet[r.intn(len(CodeAlphabet))]
	}
	return string(b[:])
}

// Create issues a new code for targetID. Expired entries are cleaned up first.
func (r *Registry) Create(targetID string, nowMs int64) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked(nowMs)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := r.generate()
		if _, taken := r.entries[code]; taken {
			continue
		}

		entry := Entry{Code: code, TargetID: targetID, CreatedAtMs: nowMs}
		r.entries[code] = entry
		return entry, nil
	}

	return Entry{}, ErrExhausted
}

// Lookup resolves a raw code. An expired entry is evicted the first time it
// is observed, so later lookups report StatusInvalid.
func (r *Registry) Lookup(raw string, nowMs int64) Lookup {
	code, ok := NormalizeCode(raw)
	if !ok {
		return Lookup{Status: StatusInvalid}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[code]
	if !ok {
		return Lookup{Status: StatusInvalid}
	}

	if r.expired(entry, nowMs) {
		delete(r.entries, code)
		return Lookup{Status: StatusExpired}
	}

	return Lookup{Status: StatusOK, Entry: entry}
}

// Delete removes a code, returning true if it existed.
func (r *Registry) Delete(raw string) bool {
	code, ok := NormalizeCode(raw)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok = r.entries[code]
	delete(r.entries, code)
	return ok
}

// DeleteTarget removes every code bound to targetID.
func (r *Registry) DeleteTarget(targetID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for code, entry := range r.entries {
		if entry.TargetID == targetID {
			delete(r.entries, code)
			n++
		}
	}
	return n
}

// CleanupExpired evicts all expired entries and returns how many were evicted.
func (r *Registry) CleanupExpired(nowMs int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleanupLocked(nowMs)
}

func (r *Registry) cleanupLocked(nowMs int64) int {
	n := 0
	for code, entry := range r.entries {
		if r.expired(entry, nowMs) {
			delete(r.entries, code)
			n++
		}
	}
	return n
}

// Len is the number of entries, including ones that expired but have not
// been observed yet.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
