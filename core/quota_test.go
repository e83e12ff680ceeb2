package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaLimiterAllow(t *testing.T) {
	q := NewQuotaLimiter(2)
	defer q.Stop()

	assert.True(t, q.Allow("u1"))
	assert.True(t, q.Allow("u1"))
	assert.False(t, q.Allow("u1"))

	// Budgets are per user.
	assert.True(t, q.Allow("u2"))
}

func TestQuotaLimiterReset(t *testing.T) {
	q := NewQuotaLimiter(1)
	defer q.Stop()

	assert.True(t, q.Allow("u1"))
	assert.False(t, q.Allow("u1"))

	q.Reset()
	assert.True(t, q.Allow("u1"))
}

func TestQuotaLimiterDisabled(t *testing.T) {
	q := NewQuotaLimiter(0)
	defer q.Stop()
	for i := 0; i < 100; i++ {
		assert.True(t, q.Allow("u1"))
	}

	// A nil limiter never blocks; the engine treats quota as optional.
	var none *QuotaLimiter
	assert.True(t, none.Allow("u1"))
	none.Stop()
}
