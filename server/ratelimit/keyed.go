// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"github.com/sasha-s/go-deadlock"
)

// Keyed is a set of buckets, one per key, that is safe for concurrent use
// (for example HTTP handlers keyed by client IP).
type Keyed struct {
	mu      deadlock.Mutex
	policy  Policy
	buckets map[string]*keyedBucket
}

type keyedBucket struct {
	*Bucket
	lastUsedMs int64
}

func NewKeyed(policy Policy) *Keyed {
	return &Keyed{
		policy:  policy,
		buckets: make(map[string]*keyedBucket),
	}
}

// Allow spends a token of key's bucket.
func (k *Keyed) Allow(key string, nowMs int64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{Bucket: NewBucket(k.policy)}
		k.buckets[key] = b
	}
	b.lastUsedMs = nowMs
	return b.Allow(nowMs)
}

// Sweep drops buckets that have been idle for at least idleMs and returns how
// many were dropped.
func (k *Keyed) Sweep(nowMs, idleMs int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for key, b := range k.buckets {
		if nowMs-b.lastUsedMs >= idleMs {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
