package advisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bookery/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "advisor_test")
	logger.Initialize("error", filepath.Join(dir, "test.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// stubClient implements Client with a configurable function
type stubClient struct {
	fn func(ctx context.Context, system, prompt string) (string, error)
}

func (s *stubClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	return s.fn(ctx, system, prompt)
}

func TestBridgeAdvise(t *testing.T) {
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		return "recommended: " + prompt, nil
	}}

	bridge := NewBridge(client, 2, 8, time.Second)
	bridge.Start()
	defer bridge.Stop()

	text, err := bridge.Advise(context.Background(), "sys", "space operas")
	require.NoError(t, err)
	assert.Equal(t, "recommended: space operas", text)
}

func TestBridgeQueueFull(t *testing.T) {
	block := make(chan struct{})
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		<-block
		return "done", nil
	}}

	// One worker, queue of one: the first job occupies the worker, the
	// second fills the queue, the third must be rejected.
	bridge := NewBridge(client, 1, 1, time.Second)
	bridge.Start()
	defer func() {
		close(block)
		bridge.Stop()
	}()

	go bridge.Advise(context.Background(), "", "first")

	// Give the worker time to pick up the first job
	time.Sleep(50 * time.Millisecond)

	go bridge.Advise(context.Background(), "", "second")
	time.Sleep(50 * time.Millisecond)

	_, err := bridge.Advise(context.Background(), "", "third")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBridgeTimeout(t *testing.T) {
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ErrTimeout
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	}}

	bridge := NewBridge(client, 1, 4, 30*time.Millisecond)
	bridge.Start()
	defer bridge.Stop()

	_, err := bridge.Advise(context.Background(), "", "slow request")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBridgeCircuitBreaker(t *testing.T) {
	failures := errors.New("upstream boom")
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		return "", failures
	}}

	bridge := NewBridge(client, 1, 16, time.Second)
	bridge.Start()
	defer bridge.Stop()

	// Trip the breaker with consecutive failures
	for i := 0; i < 5; i++ {
		_, err := bridge.Advise(context.Background(), "", "failing")
		require.Error(t, err)
	}

	// Breaker is now open: requests fail fast without reaching the client
	_, err := bridge.Advise(context.Background(), "", "rejected")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "open", bridge.State())
}

func TestBridgeStop(t *testing.T) {
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		return "ok", nil
	}}

	bridge := NewBridge(client, 2, 4, time.Second)
	bridge.Start()
	bridge.Stop()

	_, err := bridge.Advise(context.Background(), "", "after stop")
	assert.Error(t, err)
}

func TestBridgeStopDuringAdvise(t *testing.T) {
	client := &stubClient{fn: func(ctx context.Context, system, prompt string) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	}}

	bridge := NewBridge(client, 2, 4, time.Second)
	bridge.Start()

	// Submissions racing Stop must resolve, never panic: each call either
	// completes or reports the bridge as unavailable
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := bridge.Advise(context.Background(), "", "racing stop")
			if err == nil {
				assert.Equal(t, "ok", text)
			} else {
				assert.Error(t, err)
			}
		}()
	}
	bridge.Stop()
	wg.Wait()
}
