package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	clock := time.Now()
	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.allow("s1").allowed)
	res := rl.allow("s1")
	assert.True(t, res.allowed)
	assert.Equal(t, 0.0, res.remaining)
	assert.False(t, rl.allow("s1").allowed, "bucket empty")
	assert.True(t, rl.allow("s2").allowed, "sessions have separate buckets")

	// Two per hour refills one token every 30 minutes.
	clock = clock.Add(30 * time.Minute)
	assert.True(t, rl.allow("s1").allowed)
	assert.False(t, rl.allow("s1").allowed)
}

func TestRateLimiter_Prune(t *testing.T) {
	clock := time.Now()
	rl := NewRateLimiter(10)
	rl.now = func() time.Time { return clock }

	rl.allow("old")
	clock = clock.Add(2 * time.Hour)
	rl.allow("new")

	assert.Equal(t, 1, rl.Prune())
	assert.Len(t, rl.buckets, 1)
}
