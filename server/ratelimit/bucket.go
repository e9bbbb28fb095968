// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"math"
	"time"

	"golang.org/x/time/rate"
)

const (
	minCapacity = 1
	minRefill   = 0.01
)

// Policy describes the size and refill speed of a Bucket.
type Policy struct {
	Capacity        int
	RefillPerSecond float64
}

// Bucket is a token bucket with continuous refill. Time is always passed in
// explicitly (milliseconds) so that callers own the clock.
type Bucket struct {
	limiter *rate.Limiter
	refill  float64

	deniedUntilMs int64
}

// NewBucket creates a full bucket.
func NewBucket(policy Policy) *Bucket {
	capacity := policy.Capacity
	if capacity < minCapacity {
		capacity = minCapacity
	}
	refill := math.Max(minRefill, policy.RefillPerSecond)

	return &Bucket{
		limiter: rate.NewLimiter(rate.Limit(refill), capacity),
		refill:  refill,
	}
}

// Allow spends a token at nowMs if one is available.
func (b *Bucket) Allow(nowMs int64) bool {
	return b.limiter.AllowN(time.UnixMilli(nowMs), 1)
}

// Tokens is how many tokens would be available at nowMs.
func (b *Bucket) Tokens(nowMs int64) float64 {
	return b.limiter.TokensAt(time.UnixMilli(nowMs))
}

// RetryAfterMs is how long until one token will be available.
func (b *Bucket) RetryAfterMs(nowMs int64) int64 {
	deficit := 1 - b.Tokens(nowMs)
	if deficit <= 0 {
		return 0
	}
	return int64(math.Ceil(deficit / (b.refill / 1000)))
}

// Deny is called when Allow fails. It returns how long until a token is
// available and whether this is the first denial since the bucket ran dry.
func (b *Bucket) Deny(nowMs int64) (retryAfterMs int64, first bool) {
	retryAfterMs = b.RetryAfterMs(nowMs)
	if nowMs < b.deniedUntilMs {
		return retryAfterMs, false
	}
	b.deniedUntilMs = nowMs + retryAfterMs
	return retryAfterMs, true
}
