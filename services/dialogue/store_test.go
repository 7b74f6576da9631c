package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbot/models"
)

func TestMemoryStoreCreatesOnFirstContact(t *testing.T) {
	s := NewMemoryStore()
	st, err := s.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", st.ConversationID)
	assert.Equal(t, 1, st.Page)

	_, err = s.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMemoryStoreUpdateCommitsOnlyOnSuccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "c", func(st *models.ConversationState) error {
		st.Slots.Adults = models.IntPtr(2)
		return nil
	}))

	boom := errors.New("boom")
	err := s.Update(ctx, "c", func(st *models.ConversationState) error {
		st.Slots.Adults = models.IntPtr(4)
		st.Page = 9
		return boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, *st.Slots.Adults)
	assert.Equal(t, 1, st.Page)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st, _ := s.Get(ctx, "c")
	st.Page = 7
	again, _ := s.Get(ctx, "c")
	assert.Equal(t, 1, again.Page)
}

func TestMemoryStoreSerializesSameKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "same", func(st *models.ConversationState) error {
				n := st.Page
				time.Sleep(time.Microsecond)
				st.Page = n + 1
				return nil
			})
		}()
	}
	wg.Wait()

	st, err := s.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, 1+turns, st.Page)
}

func TestMemoryStoreDifferentKeysIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Update(ctx, "a", func(st *models.ConversationState) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- s.Update(ctx, "b", func(st *models.ConversationState) error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("update of another key blocked")
	}
	close(release)
}

func TestMemoryStoreUpdateHonorsContext(t *testing.T) {
	s := NewMemoryStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Update(context.Background(), "c", func(st *models.ConversationState) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Update(ctx, "c", func(st *models.ConversationState) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryStoreReplace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := models.NewConversationState("c")
	st.Page = 3
	require.NoError(t, s.Replace(ctx, st))
	got, _ := s.Get(ctx, "c")
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 1, s.Len())

	assert.ErrorIs(t, s.Replace(ctx, nil), ErrInvalidID)
}
