package daemon

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/edge"
	"github.com/1broseidon/edgeseek/internal/gesture"
	"github.com/1broseidon/edgeseek/internal/platform"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDisplay struct {
	rotation atomic.Int32
	width    atomic.Int32
}

func newFakeDisplay() *fakeDisplay {
	d := &fakeDisplay{}
	d.width.Store(1920)
	return d
}

func (d *fakeDisplay) Rotation() (int, error) { return int(d.rotation.Load()), nil }

func (d *fakeDisplay) Bounds() (platform.Rect, error) {
	return platform.Rect{Width: int(d.width.Load()), Height: 1080}, nil
}

type fakeSurfaces struct {
	live  int
	added int
}

type fakeSurface struct {
	m    *fakeSurfaces
	done bool
}

func (m *fakeSurfaces) AddSurface(platform.SurfaceSpec, platform.TouchHandler) (platform.Surface, error) {
	m.live++
	m.added++
	return &fakeSurface{m: m}, nil
}

func (s *fakeSurface) Remove() error {
	if !s.done {
		s.done = true
		s.m.live--
	}
	return nil
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := NewLogger(&buf, level, "json")

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelInfo)
	logger.Info("shown", "edge", "left")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"edge":"left"`)
}

func TestDispatcher_RunsPostsAndEventTurnsInOrder(t *testing.T) {
	before := make(chan struct{})
	after := make(chan struct{})
	quit := make(chan struct{})
	d := NewDispatcher(discardLogger())

	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), Pings{Before: before, After: after, Quit: quit})
		close(done)
	}()

	var order []string
	ran := make(chan struct{})
	require.True(t, d.Post(func() { order = append(order, "post") }))

	// One event-loop turn.
	before <- struct{}{}
	after <- struct{}{}

	require.True(t, d.Post(func() { order = append(order, "second"); close(ran) }))
	<-ran

	close(quit)
	<-done
	assert.Equal(t, []string{"post", "second"}, order)
	assert.False(t, d.Post(func() {}), "posting after stop is refused")
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, Pings{})
		close(done)
	}()

	d.Post(func() { panic("boom") })
	ran := make(chan struct{})
	d.Post(func() { close(ran) })
	<-ran

	cancel()
	<-done
}

func TestReconciler_ReportsChangeOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	display := newFakeDisplay()
	var changes atomic.Int32

	inline := func(fn func()) bool { fn(); return true }
	r := NewReconciler(ReconcilerConfig{Interval: time.Second, Clock: clock, Logger: discardLogger()},
		display, inline, func() { changes.Add(1) })

	r.ReconcileNow()
	assert.Zero(t, changes.Load(), "first pass only records the baseline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	display.rotation.Store(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	r.ReconcileNow()
	assert.Equal(t, int32(1), changes.Load(), "unchanged display reports nothing")

	display.width.Store(1280)
	r.ReconcileNow()
	assert.Equal(t, int32(2), changes.Load(), "resize counts as a change")
}

func writeConfigFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func newTestService(t *testing.T, data string) (*Service, *fakeSurfaces, *fakeDisplay, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, data)
	res, err := config.LoadFromPath(path)
	require.NoError(t, err)

	display := newFakeDisplay()
	surfaces := &fakeSurfaces{}
	registry := edge.NewRegistry(edge.Env{
		Display:  display,
		Surfaces: surfaces,
		Gesture:  gesture.Env{Logger: discardLogger()},
		Logger:   discardLogger(),
	}, res.Config.Enabled)

	svc := NewService(path, res.Config, registry, nil, discardLogger())
	require.NoError(t, svc.Start())
	return svc, surfaces, display, path
}

const twoEdges = `
edges:
  - edge: left
    activated: true
  - edge: right
    activated: true
    setting: media_volume
`

func TestService_StartAndSignals(t *testing.T) {
	svc, surfaces, _, _ := newTestService(t, twoEdges)
	assert.Equal(t, 2, surfaces.live)

	assert.False(t, svc.HandleSignal(syscall.SIGUSR2))
	assert.Equal(t, 0, surfaces.live)

	assert.False(t, svc.HandleSignal(syscall.SIGUSR1))
	assert.Equal(t, 2, surfaces.live)

	assert.True(t, svc.HandleSignal(syscall.SIGTERM))
	assert.True(t, svc.HandleSignal(os.Interrupt))

	require.NoError(t, svc.Shutdown())
	assert.Equal(t, 0, surfaces.live)
}

func TestService_ReloadAppliesEdits(t *testing.T) {
	svc, surfaces, _, path := newTestService(t, twoEdges)

	writeConfigFile(t, path, `
log_level: debug
edges:
  - edge: left
    activated: false
  - edge: top
    activated: true
`)
	require.NoError(t, svc.Reload())
	assert.Equal(t, 1, surfaces.live)
	assert.Equal(t, "debug", svc.Config().LogLevel)

	var states []string
	for _, o := range svc.registry.Status() {
		states = append(states, string(o.Edge)+"="+o.State.String())
	}
	assert.Equal(t, []string{"left=built", "top=attached"}, states)
}

func TestService_ReloadKeepsUnchangedStrips(t *testing.T) {
	svc, surfaces, _, path := newTestService(t, twoEdges)
	require.Equal(t, 2, surfaces.added)

	writeConfigFile(t, path, "log_level: debug\n"+twoEdges)
	require.NoError(t, svc.Reload())
	assert.Equal(t, 2, surfaces.added, "unchanged edges keep their windows")
	assert.Equal(t, 2, surfaces.live)

	writeConfigFile(t, path, "log_level: debug\nrotation_aware: false\n"+twoEdges)
	require.NoError(t, svc.Reload())
	assert.Equal(t, 4, surfaces.added, "rotation mode change rebuilds every strip")
	assert.Equal(t, 2, surfaces.live)
}

func TestService_ReloadGlobalDisable(t *testing.T) {
	svc, surfaces, _, path := newTestService(t, twoEdges)
	writeConfigFile(t, path, "enabled: false\n"+twoEdges)

	require.NoError(t, svc.Reload())
	assert.Equal(t, 0, surfaces.live)
	assert.False(t, svc.registry.Enabled())
}

func TestService_InvalidReloadKeepsRunningConfig(t *testing.T) {
	svc, surfaces, _, path := newTestService(t, twoEdges)
	writeConfigFile(t, path, "edges:\n  - edge: left\n    width: 0\n")

	err := svc.Reload()
	require.Error(t, err)
	var verr *config.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, surfaces.live)
	assert.Len(t, svc.Config().Edges, 2)
}

func TestService_DisplayChangedRebuilds(t *testing.T) {
	svc, surfaces, display, _ := newTestService(t, twoEdges)
	display.rotation.Store(2)

	require.NoError(t, svc.DisplayChanged())
	assert.Equal(t, 2, surfaces.live)
	status := svc.registry.Status()
	assert.Equal(t, config.EdgeRight, status[0].Physical)
	assert.Equal(t, config.EdgeLeft, status[1].Physical)
}

func TestPidFile_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edgeseek.pid")

	_, err := ReadPidFile(path)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, WritePidFile(path))
	pid, err := ReadPidFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	assert.Error(t, WritePidFile(path), "a live owner blocks a second daemon")

	RemovePidFile(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPidFile_StaleAndMalformed(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.pid")
	writeConfigFile(t, garbage, "not-a-pid\n")
	_, err := ReadPidFile(garbage)
	assert.ErrorIs(t, err, ErrNotRunning)

	stale := filepath.Join(dir, "stale.pid")
	// Pids are capped well below this on Linux.
	writeConfigFile(t, stale, strconv.Itoa(1<<30)+"\n")
	_, err = ReadPidFile(stale)
	assert.ErrorIs(t, err, ErrNotRunning)
	require.NoError(t, WritePidFile(stale), "stale files are overwritten")
}

func TestSignal_NoDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	_, err := Signal(syscall.SIGHUP)
	assert.ErrorIs(t, err, ErrNotRunning)
}
