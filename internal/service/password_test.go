package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingObserver struct{ count int }

func (o *countingObserver) Observe(float64) { o.count++ }

func TestNewPasswordHasher_Validation(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost-1, 1)
	require.Error(t, err)

	_, err = NewPasswordHasher(bcrypt.MaxCost+1, 1)
	require.Error(t, err)

	_, err = NewPasswordHasher(bcrypt.MinCost, 0)
	require.Error(t, err)
}

func TestPasswordHasher_UsesConfiguredCost(t *testing.T) {
	h, err := NewPasswordHasher(5, 1)
	require.NoError(t, err)

	hash, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
	assert.Equal(t, 5, h.Cost())
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	a, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_ConcurrentUse(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)

	hash, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := h.Verify(context.Background(), "password123", hash)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestPasswordHasher_ObservesDuration(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	obs := &countingObserver{}
	h.observer = obs

	hash, err := h.Hash(context.Background(), "password123")
	require.NoError(t, err)
	_, err = h.Verify(context.Background(), "password123", hash)
	require.NoError(t, err)

	assert.Equal(t, 2, obs.count)
}

func TestPasswordHasher_DummyHashNeverMatchesEmpty(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	dummy, err := h.dummyHash()
	require.NoError(t, err)

	ok, err := h.Verify(context.Background(), "", dummy)
	require.NoError(t, err)
	assert.False(t, ok)
}
