package edge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/gesture"
	"github.com/1broseidon/edgeseek/internal/platform"
	"github.com/1broseidon/edgeseek/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	rotation int
	err      error
}

func (d *fakeDisplay) Rotation() (int, error) { return d.rotation, d.err }

func (d *fakeDisplay) Bounds() (platform.Rect, error) {
	return platform.Rect{Width: 1920, Height: 1080}, nil
}

type fakeSurfaces struct {
	added    int
	removed  int
	maxLive  int
	addErr   error
	specs    []platform.SurfaceSpec
	handlers []platform.TouchHandler
}

func (m *fakeSurfaces) live() int { return m.added - m.removed }

func (m *fakeSurfaces) AddSurface(spec platform.SurfaceSpec, handler platform.TouchHandler) (platform.Surface, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.added++
	m.maxLive = max(m.maxLive, m.live())
	m.specs = append(m.specs, spec)
	m.handlers = append(m.handlers, handler)
	return &fakeSurface{m: m}, nil
}

type fakeSurface struct {
	m       *fakeSurfaces
	removed bool
	err     error
}

func (s *fakeSurface) Remove() error {
	if !s.removed {
		s.removed = true
		s.m.removed++
	}
	return s.err
}

type memStore struct{ value int }

func (m *memStore) Read() (int, error) { return m.value, nil }
func (m *memStore) Write(v int) error  { m.value = v; return nil }

type harness struct {
	display  *fakeDisplay
	surfaces *fakeSurfaces
	store    *memStore
	env      *Env
}

func newHarness() *harness {
	h := &harness{
		display:  &fakeDisplay{},
		surfaces: &fakeSurfaces{},
		store:    &memStore{value: 100},
	}
	h.env = &Env{
		Display:       h.display,
		Surfaces:      h.surfaces,
		RotationAware: true,
		Gesture: gesture.Env{
			Stores: settings.Stores{config.SettingBrightness: h.store},
		},
	}
	return h
}

func edgeConfig(edge config.Edge, activated bool) *config.EdgeConfig {
	cfg := config.DefaultEdge(edge)
	cfg.Activated = activated
	cfg.Setting = config.SettingBrightness
	return &cfg
}

func TestResolve_RotationAwareIsBijection(t *testing.T) {
	for r := 0; r < 4; r++ {
		seen := map[config.Edge]bool{}
		for _, e := range config.Edges {
			p, err := Resolve(e, r, true)
			require.NoError(t, err)
			seen[p] = true

			again, err := Resolve(e, r, true)
			require.NoError(t, err)
			assert.Equal(t, p, again)
		}
		assert.Len(t, seen, 4, "rotation %d", r)
	}
}

func TestResolve_RotationUnawareIsInvariant(t *testing.T) {
	for _, e := range config.Edges {
		base, err := Resolve(e, 0, false)
		require.NoError(t, err)
		assert.Equal(t, e, base)
		for r := 1; r < 4; r++ {
			p, err := Resolve(e, r, false)
			require.NoError(t, err)
			assert.Equal(t, base, p)
		}
	}
}

func TestResolve_QuarterTurn(t *testing.T) {
	p, err := Resolve(config.EdgeLeft, 1, true)
	require.NoError(t, err)
	assert.Equal(t, config.EdgeBottom, p)

	p, err = Resolve(config.EdgeTop, 2, true)
	require.NoError(t, err)
	assert.Equal(t, config.EdgeBottom, p)
}

func TestResolve_InvalidRotation(t *testing.T) {
	for _, r := range []int{-1, 4, 270} {
		_, err := Resolve(config.EdgeLeft, r, true)
		assert.ErrorIs(t, err, ErrInvalidRotation)
	}
	_, err := Resolve("middle", 0, false)
	assert.Error(t, err)
}

func TestBuild_LeftEdgeIsVerticalStrip(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeLeft, true)
	cfg.Width = 40
	o := NewOverlay(cfg, h.env)

	require.NoError(t, o.Build())
	assert.Equal(t, StateBuilt, o.State())
	assert.Equal(t, Geometry{
		Gravity:   config.EdgeLeft,
		Landscape: false,
		Width:     40,
		Height:    platform.MatchParent,
	}, o.Geometry())
	assert.IsType(t, &gesture.BrightnessController{}, o.Controller())
}

func TestBuild_HorizontalAfterRotation(t *testing.T) {
	h := newHarness()
	h.display.rotation = 1
	o := NewOverlay(edgeConfig(config.EdgeLeft, true), h.env)

	require.NoError(t, o.Build())
	g := o.Geometry()
	assert.Equal(t, config.EdgeBottom, g.Gravity)
	assert.True(t, g.Landscape)
	assert.Equal(t, platform.MatchParent, g.Width)
	assert.Equal(t, 40, g.Height)
}

func TestBuild_InvalidRotationKeepsPriorGeometry(t *testing.T) {
	h := newHarness()
	o := NewOverlay(edgeConfig(config.EdgeRight, true), h.env)
	require.NoError(t, o.Build())
	before := o.Geometry()

	h.display.err = fmt.Errorf("randr rotation 0x10: %w", platform.ErrInvalidRotation)
	assert.ErrorIs(t, o.Build(), ErrInvalidRotation)
	assert.Equal(t, before, o.Geometry())
	assert.Equal(t, StateBuilt, o.State())

	h.display.err = nil
	h.display.rotation = 7
	assert.ErrorIs(t, o.Build(), ErrInvalidRotation)
	assert.Equal(t, before, o.Geometry())
}

func TestAttach_ContractErrors(t *testing.T) {
	h := newHarness()
	o := NewOverlay(edgeConfig(config.EdgeLeft, true), h.env)

	assert.ErrorIs(t, o.Attach(), ErrNotBuilt)
	assert.ErrorIs(t, o.Detach(), ErrNotAttached)
	assert.ErrorIs(t, o.Reattach(), ErrNotAttached)

	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())
	assert.Equal(t, StateAttached, o.State())
	assert.ErrorIs(t, o.Attach(), ErrAlreadyAttached)
	assert.Equal(t, 1, h.surfaces.added)

	require.NoError(t, o.Detach())
	assert.Equal(t, StateBuilt, o.State())
	assert.ErrorIs(t, o.Detach(), ErrNotAttached)
	assert.Equal(t, 0, h.surfaces.live())
}

func TestAttach_NotActivatedStaysBuilt(t *testing.T) {
	h := newHarness()
	o := NewOverlay(edgeConfig(config.EdgeLeft, false), h.env)
	require.NoError(t, o.Build())

	require.NoError(t, o.Attach())
	assert.Equal(t, StateBuilt, o.State())
	assert.Zero(t, h.surfaces.added)
}

func TestAttach_AppearanceFromConfig(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeTop, true)
	cfg.Color = config.MustParseColor("#00ff80")
	cfg.Alpha = 0.25
	cfg.Width = 12
	o := NewOverlay(cfg, h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())

	require.Len(t, h.surfaces.specs, 1)
	spec := h.surfaces.specs[0]
	assert.Equal(t, config.EdgeTop, spec.Gravity)
	assert.Equal(t, platform.MatchParent, spec.Width)
	assert.Equal(t, 12, spec.Height)
	assert.Equal(t, uint32(0x00ff80), spec.Color.Pixel())
	assert.Equal(t, 0.25, spec.Alpha)
}

func TestAttach_AddFailureLeavesBuilt(t *testing.T) {
	h := newHarness()
	h.surfaces.addErr = errors.New("no display")
	o := NewOverlay(edgeConfig(config.EdgeLeft, true), h.env)
	require.NoError(t, o.Build())

	assert.Error(t, o.Attach())
	assert.Equal(t, StateBuilt, o.State())
}

func TestReattach_NeverHoldsTwoSurfaces(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeLeft, true)
	o := NewOverlay(cfg, h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())

	for r := 0; r < 8; r++ {
		h.display.rotation = r % 4
		require.NoError(t, o.Reattach())
		assert.Equal(t, 1, h.surfaces.live())
		assert.Equal(t, StateAttached, o.State())
	}
	assert.Equal(t, 1, h.surfaces.maxLive)
	assert.Equal(t, 9, h.surfaces.added)
}

func TestReattach_DeactivatedEdgeEndsBuilt(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeLeft, true)
	o := NewOverlay(cfg, h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())

	cfg.Activated = false
	require.NoError(t, o.Reattach())
	assert.Equal(t, StateBuilt, o.State())
	assert.Equal(t, 0, h.surfaces.live())
}

func TestReattach_FailedRebuildKeepsPriorGeometry(t *testing.T) {
	h := newHarness()
	o := NewOverlay(edgeConfig(config.EdgeLeft, true), h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())
	before := o.Geometry()

	h.display.rotation = 9
	assert.ErrorIs(t, o.Reattach(), ErrInvalidRotation)
	assert.Equal(t, StateAttached, o.State())
	assert.Equal(t, before, o.Geometry())
	assert.Equal(t, 1, h.surfaces.live())
	assert.Equal(t, 1, h.surfaces.maxLive)

	h.display.rotation = 1
	require.NoError(t, o.Reattach())
	assert.Equal(t, config.EdgeBottom, o.Geometry().Gravity)
	assert.Equal(t, 1, h.surfaces.live())
}

func TestReattach_PicksUpNewSetting(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeLeft, true)
	o := NewOverlay(cfg, h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())

	cfg.Setting = config.SettingMediaVolume
	require.NoError(t, o.Reattach())
	assert.IsType(t, &gesture.MediaVolumeController{}, o.Controller())
}

func TestHandlerRoutesToCurrentController(t *testing.T) {
	h := newHarness()
	cfg := edgeConfig(config.EdgeLeft, true)
	cfg.Sensitivity = 100
	o := NewOverlay(cfg, h.env)
	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())

	handler := h.surfaces.handlers[0]
	handler(platform.Sample{Action: platform.ActionDown, Y: 500})
	handler(platform.Sample{Action: platform.ActionMove, Y: 500})
	handler(platform.Sample{Action: platform.ActionMove, Y: 480})
	assert.Equal(t, 120, h.store.value)
}

func TestDestroy(t *testing.T) {
	h := newHarness()
	o := NewOverlay(edgeConfig(config.EdgeLeft, true), h.env)
	require.NoError(t, o.Destroy())

	require.NoError(t, o.Build())
	require.NoError(t, o.Attach())
	require.NoError(t, o.Destroy())
	assert.Equal(t, StateUnbuilt, o.State())
	assert.Nil(t, o.Controller())
	assert.Equal(t, 0, h.surfaces.live())
	assert.ErrorIs(t, o.Attach(), ErrNotBuilt)
}

func TestRegistry_SyncCreatesUpdatesAndRemoves(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)

	left := edgeConfig(config.EdgeLeft, true)
	right := edgeConfig(config.EdgeRight, false)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{left, right}))

	status := r.Status()
	require.Len(t, status, 2)
	assert.Equal(t, StateAttached, status[0].State)
	assert.Equal(t, StateBuilt, status[1].State)
	assert.Equal(t, 1, h.surfaces.live())

	right.Activated = true
	left.Width = 20
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{left, right}))
	assert.Equal(t, 2, h.surfaces.live())
	lo, ok := r.Overlay(config.EdgeLeft)
	require.True(t, ok)
	assert.Equal(t, 20, lo.Geometry().Width)

	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{right}))
	assert.Equal(t, 1, h.surfaces.live())
	_, ok = r.Overlay(config.EdgeLeft)
	assert.False(t, ok)
	assert.Equal(t, 2, h.surfaces.maxLive)
}

func TestRegistry_DuplicateEdgeFirstWins(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)

	first := edgeConfig(config.EdgeLeft, true)
	second := edgeConfig(config.EdgeLeft, true)
	second.Width = 99
	err := r.SyncFromConfig([]*config.EdgeConfig{first, second})
	require.Error(t, err)

	require.Len(t, r.Overlays(), 1)
	assert.Same(t, first, r.Overlays()[0].Config())
	assert.Equal(t, 1, h.surfaces.live())
}

func TestRegistry_DisabledSyncDoesNotAttach(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, false)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{edgeConfig(config.EdgeLeft, true)}))

	assert.Equal(t, StateUnbuilt, r.Status()[0].State)
	assert.Zero(t, h.surfaces.added)
}

func TestRegistry_ApplyGlobalEnable(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, false)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{
		edgeConfig(config.EdgeLeft, true),
		edgeConfig(config.EdgeTop, false),
		edgeConfig(config.EdgeRight, true),
	}))

	require.NoError(t, r.ApplyGlobalEnable(true))
	assert.True(t, r.Enabled())
	assert.Equal(t, 2, h.surfaces.live())
	assert.Equal(t, StateBuilt, r.Status()[1].State)

	require.NoError(t, r.ApplyGlobalEnable(true))
	assert.Equal(t, 2, h.surfaces.live(), "enabling twice adds nothing")

	require.NoError(t, r.ApplyGlobalEnable(false))
	assert.Equal(t, 0, h.surfaces.live())
	for _, s := range r.Status() {
		assert.NotEqual(t, StateAttached, s.State)
	}
}

func TestRegistry_ErrorsAreIsolated(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{
		edgeConfig(config.EdgeLeft, true),
		edgeConfig(config.EdgeRight, true),
	}))

	bad := &fakeSurface{m: h.surfaces, err: errors.New("BadWindow")}
	lo, _ := r.Overlay(config.EdgeLeft)
	lo.surface = bad

	err := r.ApplyGlobalEnable(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left edge")
	for _, s := range r.Status() {
		assert.Equal(t, StateBuilt, s.State, "%s", s.Edge)
	}
}

func TestRegistry_OnConfigurationChanged(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{
		edgeConfig(config.EdgeLeft, true),
		edgeConfig(config.EdgeTop, false),
	}))

	h.display.rotation = 2
	require.NoError(t, r.OnConfigurationChanged())
	status := r.Status()
	assert.Equal(t, config.EdgeRight, status[0].Physical)
	assert.Equal(t, StateAttached, status[0].State)
	assert.Equal(t, StateBuilt, status[1].State)
	assert.Equal(t, 1, h.surfaces.live())

	r.SetRotationAware(false)
	require.NoError(t, r.OnConfigurationChanged())
	assert.Equal(t, config.EdgeLeft, r.Status()[0].Physical)
}

func TestRegistry_RecoversAfterInvalidRotation(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{edgeConfig(config.EdgeLeft, true)}))

	h.display.rotation = 9
	err := r.OnConfigurationChanged()
	require.ErrorIs(t, err, ErrInvalidRotation)
	assert.Contains(t, err.Error(), "left edge")
	assert.Equal(t, 1, h.surfaces.live())

	h.display.rotation = 1
	require.NoError(t, r.OnConfigurationChanged())
	status := r.Status()
	assert.Equal(t, StateAttached, status[0].State)
	assert.Equal(t, config.EdgeBottom, status[0].Physical)
	assert.Equal(t, 1, h.surfaces.live())
}

func TestRegistry_RecoversAfterAddFailure(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{
		edgeConfig(config.EdgeLeft, true),
		edgeConfig(config.EdgeTop, false),
	}))

	h.surfaces.addErr = errors.New("BadAlloc")
	h.display.rotation = 2
	require.Error(t, r.OnConfigurationChanged())
	assert.Equal(t, StateBuilt, r.Status()[0].State)
	assert.Equal(t, 0, h.surfaces.live())

	h.surfaces.addErr = nil
	require.NoError(t, r.OnConfigurationChanged())
	status := r.Status()
	assert.Equal(t, StateAttached, status[0].State)
	assert.Equal(t, config.EdgeRight, status[0].Physical)
	assert.Equal(t, StateBuilt, status[1].State, "deactivated edge stays down")
	assert.Equal(t, 1, h.surfaces.live())
}

func TestRegistry_DisabledConfigurationChangeAddsNothing(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{edgeConfig(config.EdgeLeft, true)}))
	require.NoError(t, r.ApplyGlobalEnable(false))

	require.NoError(t, r.OnConfigurationChanged())
	assert.Equal(t, 0, h.surfaces.live())
	assert.Equal(t, 1, h.surfaces.added)
}

func TestRegistry_SyncKeepsUnchangedSurfaces(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	left := edgeConfig(config.EdgeLeft, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{left}))
	require.Equal(t, 1, h.surfaces.added)

	same := *left
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{&same}))
	assert.Equal(t, 1, h.surfaces.added)
	assert.Equal(t, 0, h.surfaces.removed)

	r.SetRotationAware(false)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{&same}))
	assert.Equal(t, 2, h.surfaces.added, "rotation mode change rebuilds")

	changed := same
	changed.Alpha = 0.9
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{&changed}))
	assert.Equal(t, 3, h.surfaces.added)
	assert.Equal(t, 1, h.surfaces.live())
}

func TestRegistry_Shutdown(t *testing.T) {
	h := newHarness()
	r := NewRegistry(*h.env, true)
	require.NoError(t, r.SyncFromConfig([]*config.EdgeConfig{
		edgeConfig(config.EdgeLeft, true),
		edgeConfig(config.EdgeBottom, true),
	}))

	require.NoError(t, r.Shutdown())
	assert.Empty(t, r.Overlays())
	assert.Equal(t, 0, h.surfaces.live())
}
