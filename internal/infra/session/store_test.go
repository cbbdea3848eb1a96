package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadgate/internal/entity"
)

func TestDoCreatesAndReusesSessions(t *testing.T) {
	s := NewStore(time.Minute)

	id, err := s.Do("", func(sess *entity.Session) error {
		assert.Equal(t, entity.StateIntake, sess.State)
		return sess.SubmitSucceeded()
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := s.Do(id, func(sess *entity.Session) error {
		assert.Equal(t, entity.StateSuccess, sess.State)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, _ := s.Do("forged-cookie", func(sess *entity.Session) error {
		assert.Equal(t, entity.StateIntake, sess.State)
		return nil
	})
	assert.NotEqual(t, "forged-cookie", other)
	assert.Equal(t, 2, s.Len())
}

func TestDoPassesErrorThrough(t *testing.T) {
	s := NewStore(time.Minute)
	id, _ := s.Do("", func(*entity.Session) error { return nil })

	_, err := s.Do(id, func(sess *entity.Session) error { return sess.Logout() })

	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestDoSerialisesOneSession(t *testing.T) {
	s := NewStore(time.Minute)
	id, _ := s.Do("", func(*entity.Session) error { return nil })

	var wg sync.WaitGroup
	succeeded := 0
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Do(id, func(sess *entity.Session) error { return sess.SubmitSucceeded() })
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestEvict(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(30 * time.Minute)
	s.Now = func() time.Time { return now }

	old, _ := s.Do("", func(*entity.Session) error { return nil })
	now = now.Add(20 * time.Minute)
	fresh, _ := s.Do("", func(*entity.Session) error { return nil })
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, s.Evict())
	assert.Equal(t, 1, s.Len())

	// an evicted id gets a brand new session
	id, _ := s.Do(old, func(*entity.Session) error { return nil })
	assert.NotEqual(t, old, id)
	kept, _ := s.Do(fresh, func(*entity.Session) error { return nil })
	assert.Equal(t, fresh, kept)
}
