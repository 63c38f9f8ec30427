package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLockKey(t *testing.T) {
	require.Equal(t, "stressless:lock:user:abc", lockKey("abc"))
}

func TestNewLockerDefaults(t *testing.T) {
	l := NewLocker(nil, 0, nil)
	require.Equal(t, defaultLockTTL, l.ttl)
	require.NotNil(t, l.logger)
}

func TestLockerSerializesAgainstServer(t *testing.T) {
	url := os.Getenv("STRESSLESS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("STRESSLESS_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewLocker(client, 5*time.Second, nil)
	user := uuid.NewString()

	unlock, err := l.Lock(ctx, user)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, user)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	var mu sync.Mutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(ctx, user)
			if err != nil {
				t.Error(err)
				return
			}
			defer release()
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 5, counter)
}
