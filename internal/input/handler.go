package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/override"
	"golang.org/x/sync/errgroup"
)

// Logger defines the logging interface used by the Handler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Handler.
type Options struct {
	// Schema is the immutable input schema. Required.
	Schema *binding.Schema

	// Platform is the external device/action provider. Required.
	Platform Platform

	// Store reads and writes the override file. Defaults to
	// override.NewStore("").
	Store *override.Store

	// Preferences holds the remembered device preference. Optional.
	Preferences device.PreferenceRepository

	// History records applied override changes. Optional.
	History override.History

	// Classifier maps platform handles to devices. Defaults to
	// device.NewClassifier().
	Classifier *device.Classifier

	// DefaultDevice is the configured fallback device.
	DefaultDevice device.Device

	// DiscoveryTimeout bounds device discovery. Zero means no timeout; the
	// context passed to Initialise still cancels it.
	DiscoveryTimeout time.Duration

	Notifier Notifier
	Logger   Logger
}

// Handler owns the live binding model, the device registry and the read
// API. All methods are safe for concurrent use.
type Handler struct {
	schema   *binding.Schema
	platform Platform
	store    *override.Store
	prefs    device.PreferenceRepository
	history  override.History
	registry *device.Registry
	notifier Notifier
	logger   Logger
	timeout  time.Duration

	initMu sync.Mutex // serialises Initialise
	state  atomic.Int32
	ready  chan struct{}

	// mu guards the live model. Override commits hold it for writing so a
	// platform push and its in-memory mirror are never observed apart.
	mu      sync.RWMutex
	schemes *binding.Schemes

	saveMu sync.Mutex // serialises collect+save of the override file

	memory *buttonMemory

	stopMu    sync.Mutex
	stopWatch func()
}

// New validates the options and returns an uninitialised Handler.
//
// Store, Notifier and Logger fall back to a path-less store, a silent
// notifier and a no-op logger. The logger is shared with the device
// registry and the store.
//
// Parameters:
//   - opts: Schema and Platform are required; the rest are optional
//
// Returns:
//   - *Handler: Handler in StateUninitialized; call Initialise next
//   - error: ErrInvalidOptions if Schema or Platform is missing
func New(opts Options) (*Handler, error) {
	if opts.Schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidOptions)
	}
	if opts.Platform == nil {
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidOptions)
	}
	if opts.Store == nil {
		opts.Store = override.NewStore("")
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	reg := device.NewRegistry(opts.Classifier, opts.DefaultDevice)
	reg.SetLogger(opts.Logger)
	opts.Store.SetLogger(opts.Logger)

	return &Handler{
		schema:   opts.Schema,
		platform: opts.Platform,
		store:    opts.Store,
		prefs:    opts.Preferences,
		history:  opts.History,
		registry: reg,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		timeout:  opts.DiscoveryTimeout,
		ready:    make(chan struct{}),
		memory:   newButtonMemory(),
	}, nil
}

// State returns the current lifecycle state.
func (h *Handler) State() State {
	return State(h.state.Load())
}

// Ready returns a channel closed when the handler reaches Ready.
func (h *Handler) Ready() <-chan struct{} {
	return h.ready
}

// IsReady reports whether the handler has reached Ready.
func (h *Handler) IsReady() bool {
	return h.State() == StateReady
}

func (h *Handler) setState(s State) {
	h.state.Store(int32(s))
	h.logger.Debug("input state changed", "state", s.String())
}

// Initialise runs the start-up sequence and blocks until Ready or failure.
//
// The sequence is:
//  1. Building: builds the schemes from the schema
//  2. Loads the preferred device, if a preference store is set
//  3. DeviceDiscovery: discovers devices while loading the override file
//  4. OverridesApplied: applies the loaded records once both have joined
//  5. Ready: closes the Ready channel and notifies InputsReady
//
// A broken override file is logged and start-up continues without
// overrides. Cancelling ctx, or the configured discovery timeout, aborts
// discovery; the handler then stays in DeviceDiscovery and reads keep
// returning zero values.
//
// Parameters:
//   - ctx: Bounds discovery and the preference load
//
// Returns:
//   - error: ErrAlreadyInitialised on a second call, or the build or
//     discovery failure
func (h *Handler) Initialise(ctx context.Context) error {
	h.initMu.Lock()
	defer h.initMu.Unlock()

	if h.State() != StateUninitialized {
		return ErrAlreadyInitialised
	}

	// Building.
	h.setState(StateBuilding)
	schemes, err := binding.Build(h.schema)
	if err != nil {
		return fmt.Errorf("building input schemes: %w", err)
	}
	h.mu.Lock()
	h.schemes = schemes
	h.mu.Unlock()
	h.loadPreference(ctx)

	// DeviceDiscovery, joined with the override load.
	h.setState(StateDeviceDiscovery)
	records, err := h.discoverAndLoad(ctx)
	if err != nil {
		return err
	}

	// OverridesApplied.
	h.mu.Lock()
	res := override.Apply(h.schemes, h.platform, records)
	h.mu.Unlock()
	h.reportResult(ctx, res, override.SourceFile)
	h.setState(StateOverridesApplied)

	// Ready.
	h.setState(StateReady)
	close(h.ready)
	h.logger.Info("inputs ready",
		"active_device", h.registry.Active().String(),
		"overrides_applied", len(res.Applied),
		"overrides_skipped", res.Skipped,
		"override_errors", len(res.Errors),
	)
	h.notifier.InputsReady()
	return nil
}

func (h *Handler) loadPreference(ctx context.Context) {
	if h.prefs == nil {
		return
	}
	d, err := h.prefs.LoadPreferred(ctx)
	switch {
	case errors.Is(err, device.ErrPreferenceNotFound):
		return
	case err != nil:
		h.logger.Warn("loading device preference", "error", err)
		return
	}
	h.registry.SetPreferred(d)
	h.logger.Debug("device preference loaded", "device", d.String())
}

func (h *Handler) discoverAndLoad(ctx context.Context) ([]override.Record, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var records []override.Record
	discovered := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.discover(gctx, discovered)
	})
	g.Go(func() error {
		recs, recErrs, err := h.store.Load()
		if err != nil {
			// A broken file is a configuration problem, not a start-up
			// failure: continue with no overrides.
			h.logger.Error("loading override file", "path", h.store.Path(), "error", err)
			return nil
		}
		for _, e := range recErrs {
			h.logRecordError(e)
		}
		records = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("device discovery: %w", err)
	}

	// The join: discovery's notification has fired before overrides apply.
	<-discovered
	return records, nil
}

func (h *Handler) discover(ctx context.Context, discovered chan<- struct{}) error {
	stop := h.platform.WatchDevices(h.onDeviceChange)
	h.stopMu.Lock()
	h.stopWatch = stop
	h.stopMu.Unlock()

	handles, err := h.platform.Devices(ctx)
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	change := h.registry.Sync(handles)
	h.logger.Info("devices discovered",
		"connected", len(change.Connected), "active", change.Active.String())
	h.notifier.DevicesUpdated(change.Connected, change.Active)
	close(discovered)
	return nil
}

func (h *Handler) onDeviceChange(hd device.Handle, kind device.ChangeKind) {
	if _, err := h.HandleDeviceChange(hd, kind); err != nil {
		h.logger.Error("device change", "class", hd.Class, "id", hd.ID, "kind", string(kind), "error", err)
	}
}

// HandleDeviceChange applies one device-change event to the registry and
// publishes the resulting notifications. An unrecognised kind returns
// device.ErrInvalidPlatformState.
func (h *Handler) HandleDeviceChange(hd device.Handle, kind device.ChangeKind) (device.Change, error) {
	change, err := h.registry.HandleChange(hd, kind)
	if err != nil {
		return change, err
	}
	if change.Device != device.None {
		h.notifier.DeviceStatusChanged(change.Device, kind)
	}
	if change.MembershipChanged || change.ActiveChanged {
		h.notifier.DevicesUpdated(change.Connected, change.Active)
	}
	return change, nil
}

// ActiveDevice returns the active device.
func (h *Handler) ActiveDevice() device.Device {
	return h.registry.Active()
}

// ConnectedDevices returns the connected devices in connection order.
func (h *Handler) ConnectedDevices() []device.Device {
	return h.registry.Connected()
}

// DeviceStats returns registry statistics.
func (h *Handler) DeviceStats() device.Stats {
	return h.registry.GetStats()
}

// SetPreferredDevice stores the user's device preference and, when that
// device is connected, makes it active.
func (h *Handler) SetPreferredDevice(ctx context.Context, d device.Device) error {
	if d == device.None || !d.Valid() {
		return fmt.Errorf("%w: %s", device.ErrInvalidDevice, d)
	}
	if h.prefs != nil {
		if err := h.prefs.SavePreferred(ctx, d); err != nil {
			return err
		}
	}
	h.registry.SetPreferred(d)

	if !h.registry.IsConnected(d) {
		return nil
	}
	prev := h.registry.Active()
	if err := h.registry.Switch(d); err != nil {
		return err
	}
	if prev != d {
		h.notifier.DevicesUpdated(h.registry.Connected(), d)
	}
	return nil
}

// NewOwnerID returns a fresh owner identifier for ReadButtonOnce.
func (h *Handler) NewOwnerID() string {
	return uuid.NewString()
}

// Close stops watching device changes.
func (h *Handler) Close() {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	if h.stopWatch != nil {
		h.stopWatch()
		h.stopWatch = nil
	}
}

func (h *Handler) logRecordError(err error) {
	var re *override.RecordError
	if errors.As(err, &re) {
		h.logger.Warn("override record rejected",
			"action", re.Action, "map", re.Map, "index", re.Index, "error", re.Err)
		return
	}
	h.logger.Warn("override record rejected", "error", err)
}

// reportResult logs record errors and publishes every applied change.
func (h *Handler) reportResult(ctx context.Context, res override.Result, source string) {
	for _, e := range res.Errors {
		h.logRecordError(e)
	}
	for _, ch := range res.Applied {
		h.publishChange(ctx, ch, source)
	}
}

func (h *Handler) publishChange(ctx context.Context, ch override.Change, source string) {
	if h.history != nil {
		if err := h.history.Record(ctx, ch, source); err != nil {
			h.logger.Warn("recording binding history", "error", err)
		}
	}
	h.notifier.BindingOverridden(BindingEvent{
		Map:     ch.Record.Map,
		Action:  ch.Record.Action,
		Index:   ch.Record.Index,
		Bind:    ch.Record.Bind,
		Path:    ch.InternalPath,
		Display: ch.Display,
		Reset:   ch.Reset,
		Source:  source,
		At:      time.Now().UTC(),
	})
}
