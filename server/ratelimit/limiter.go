// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

const (
	CategoryJoin  = Category("join")
	CategoryMove  = Category("move")
	CategoryCast  = Category("cast")
	CategoryCatch = Category("catch")

	// KickThreshold is how many violations a session may accumulate before it
	// is disconnected.
	KickThreshold = 40
)

// Category is a kind of client action that has its own bucket.
type Category string

// DefaultPolicies are tuned to the legitimate frequency of each action.
var DefaultPolicies = map[Category]Policy{
	CategoryMove:  {Capacity: 25, RefillPerSecond: 25},
	CategoryCast:  {Capacity: 5, RefillPerSecond: 5},
	CategoryCatch: {Capacity: 5, RefillPerSecond: 5},
	CategoryJoin:  {Capacity: 2, RefillPerSecond: 1},
}

// Limiter tracks buckets per (session, category) and abuse violations per
// session. It is owned by a single goroutine and does no locking.
type Limiter struct {
	policies      map[Category]Policy
	buckets       map[string]map[Category]*Bucket
	violations    map[string]int
	kickThreshold int
}

// NewLimiter creates a Limiter. Categories missing from policies are never limited.
func NewLimiter(policies map[Category]Policy, kickThreshold int) *Limiter {
	return &Limiter{
		policies:      policies,
		buckets:       make(map[string]map[Category]*Bucket),
		violations:    make(map[string]int),
		kickThreshold: kickThreshold,
	}
}

// bucket lazily creates the bucket of a session and category.
func (l *Limiter) bucket(session string, category Category) *Bucket {
	policy, ok := l.policies[category]
	if !ok {
		return nil
	}

	sessionBuckets := l.buckets[session]
	if sessionBuckets == nil {
		sessionBuckets = make(map[Category]*Bucket, len(l.policies))
		l.buckets[session] = sessionBuckets
	}

	b := sessionBuckets[category]
	if b == nil {
		b = NewBucket(policy)
		sessionBuckets[category] = b
	}
	return b
}

// Allow spends a token of the session's category bucket.
func (l *Limiter) Allow(session string, category Category, nowMs int64) bool {
	b := l.bucket(session, category)
	return b == nil || b.Allow(nowMs)
}

// RetryAfterMs is how long until the session's category bucket has a token.
func (l *Limiter) RetryAfterMs(session string, category Category, nowMs int64) int64 {
	if b := l.bucket(session, category); b != nil {
		return b.RetryAfterMs(nowMs)
	}
	return 0
}

// Deny reports how long a denied session must wait and whether it should be
// told, which happens once per window in which its category bucket is empty.
func (l *Limiter) Deny(session string, category Category, nowMs int64) (retryAfterMs int64, notify bool) {
	if b := l.bucket(session, category); b != nil {
		return b.Deny(nowMs)
	}
	return 0, false
}

// Violation records an abuse event and returns the session's new total and
// whether it has reached the kick threshold.
func (l *Limiter) Violation(session string) (count int, kick bool) {
	count = l.violations[session] + 1
	l.violations[session] = count
	return count, count >= l.kickThreshold
}

// Violations returns the current violation total of a session.
func (l *Limiter) Violations(session string) int {
	return l.violations[session]
}

// Forget discards all buckets and violations of a session.
func (l *Limiter) Forget(session string) {
	delete(l.buckets, session)
	delete(l.violations, session)
}
