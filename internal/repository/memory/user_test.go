package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codilore/codilore/internal/domain"
	"github.com/codilore/codilore/internal/repository/memory"
)

func newUser(email string) *domain.User {
	return &domain.User{
		ID:           "id-" + email,
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserStore_InsertAndFind(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newUser("test@example.com")))

	found, ok, err := store.FindByEmail(ctx, "TEST@example.com ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "id-test@example.com", found.ID)
	assert.Equal(t, "Test User", found.DisplayName)
}

func TestUserStore_FindMissing(t *testing.T) {
	store := memory.NewUserStore()

	found, ok, err := store.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestUserStore_InsertDuplicate(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newUser("dup@example.com")))

	second := newUser("dup@example.com")
	second.DisplayName = "Second"
	err := store.Insert(ctx, second)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	found, _, _ := store.FindByEmail(ctx, "dup@example.com")
	assert.Equal(t, "Test User", found.DisplayName, "existing record must not be overwritten")
}

func TestUserStore_Update(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newUser("up@example.com")))

	user, _, err := store.FindByEmail(ctx, "up@example.com")
	require.NoError(t, err)
	user.PasswordHash = "new-hash"
	require.NoError(t, store.Update(ctx, user))

	found, _, _ := store.FindByEmail(ctx, "up@example.com")
	assert.Equal(t, "new-hash", found.PasswordHash)
}

func TestUserStore_UpdateMissing(t *testing.T) {
	store := memory.NewUserStore()

	err := store.Update(context.Background(), newUser("ghost@example.com"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserStore_ReturnsCopies(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newUser("copy@example.com")))

	found, _, _ := store.FindByEmail(ctx, "copy@example.com")
	found.PasswordHash = "mutated"

	again, _, _ := store.FindByEmail(ctx, "copy@example.com")
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestUserStore_ConcurrentInsertSameEmail(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	const workers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Insert(ctx, newUser("race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case err == domain.ErrAlreadyExists:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
	assert.Equal(t, 1, store.Len())
}
