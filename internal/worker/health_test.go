package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *fakePinger) Health(context.Context) (models.Health, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return models.Health{}, p.err
	}
	return models.Health{Status: "healthy"}, nil
}

func (p *fakePinger) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakePinger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestHealthWatcher_ModeTransitions(t *testing.T) {
	p := &fakePinger{}
	w := NewHealthWatcher(p, time.Minute, logging.Nop{})
	ctx := context.Background()

	assert.Equal(t, ModeUnknown, w.Mode())

	w.check(ctx)
	assert.Equal(t, ModeOnline, w.Mode())

	p.fail(errors.New("connection refused"))
	w.check(ctx)
	assert.Equal(t, ModeOffline, w.Mode())

	p.fail(nil)
	w.check(ctx)
	assert.Equal(t, ModeOnline, w.Mode())
	assert.Equal(t, 3, p.count())
}

func TestHealthWatcher_SetModeReportsChange(t *testing.T) {
	w := NewHealthWatcher(&fakePinger{}, time.Minute, logging.Nop{})

	assert.True(t, w.setMode(ModeOnline))
	assert.False(t, w.setMode(ModeOnline))
	assert.True(t, w.setMode(ModeOffline))
}

func TestHealthWatcher_DisabledInterval(t *testing.T) {
	p := &fakePinger{}
	w := NewHealthWatcher(p, 0, logging.Nop{})

	require.NoError(t, w.Run(context.Background()))
	assert.Zero(t, p.count())
}

func TestHealthWatcher_RunUntilCancelled(t *testing.T) {
	p := &fakePinger{}
	w := NewHealthWatcher(p, 5*time.Millisecond, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, ModeOnline, w.Mode())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "online", ModeOnline.String())
	assert.Equal(t, "offline", ModeOffline.String())
	assert.Equal(t, "unknown", ModeUnknown.String())
}
