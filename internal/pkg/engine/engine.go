//go:build linux

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/naegi/joy2mouse/internal/pkg/epoll"
	"github.com/naegi/joy2mouse/internal/pkg/hotplug"
	"github.com/naegi/joy2mouse/internal/pkg/input"
	"github.com/naegi/joy2mouse/internal/pkg/logger"
	"github.com/naegi/joy2mouse/internal/pkg/motion"
	"github.com/naegi/joy2mouse/internal/pkg/pool"
	"github.com/naegi/joy2mouse/internal/pkg/profile"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Token layout within the multiplexer. The hot-plug source sits below
// DeviceTokenStart so the pool's contiguous token range never collides
// with it.
const (
	HotplugToken     = 0
	DeviceTokenStart = 1
)

// Multiplexer is the readiness side of the loop, epoll in production.
type Multiplexer interface {
	pool.Registrar
	Wait(timeoutMs int) ([]epoll.Ready, error)
}

// Device is a pool member the loop can drain samples from.
type Device interface {
	pool.Device
	Name() string
	ID() input.InputID
	NextEvent() (*input.Sample, error)
}

// HotplugSource surfaces device add/remove notifications through a
// pollable descriptor.
type HotplugSource interface {
	Fd() int
	Read() ([]hotplug.Event, error)
}

// Sink consumes whole-unit pointer deltas.
type Sink interface {
	Move(dx, dy int32) error
}

// Params is the runtime-swappable part of the configuration.
type Params struct {
	Speed     float64
	Transform motion.TransformConfig
}

type Config struct {
	Mux      Multiplexer
	Hotplug  HotplugSource
	Sink     Sink
	Open     func(path string) (Device, error)
	Profiles profile.Profiles
	// Reload delivers validated parameter updates, checked once per
	// iteration. May be nil.
	Reload <-chan Params

	Params      Params
	WaitTimeout time.Duration

	// Now overrides the wall clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Loop owns every piece of mutable state and advances the whole system one
// readiness cycle at a time. It is strictly single-threaded: devices, the
// transform and the integrator are only ever touched from RunOnce.
type Loop struct {
	mux        Multiplexer
	hp         HotplugSource
	sink       Sink
	open       func(path string) (Device, error)
	profiles   profile.Profiles
	reload     <-chan Params
	baseParams Params

	pool       *pool.Pool[Device]
	transform  *motion.Transform
	integrator *motion.Integrator

	timeoutMs int
	now       func() time.Time
	last      time.Time
}

func New(cfg Config) (*Loop, error) {
	transform, err := motion.NewTransform(cfg.Params.Transform)
	if err != nil {
		return nil, fmt.Errorf("joystick configuration rejected: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := &Loop{
		mux:        cfg.Mux,
		hp:         cfg.Hotplug,
		sink:       cfg.Sink,
		open:       cfg.Open,
		profiles:   cfg.Profiles,
		reload:     cfg.Reload,
		baseParams: cfg.Params,
		pool:       pool.New[Device](DeviceTokenStart, cfg.Mux),
		transform:  transform,
		integrator: motion.NewIntegrator(cfg.Params.Speed),
		timeoutMs:  int(cfg.WaitTimeout.Milliseconds()),
		now:        now,
		last:       now(),
	}

	if err := cfg.Mux.Add(cfg.Hotplug.Fd(), HotplugToken); err != nil {
		return nil, fmt.Errorf("registering hotplug source: %w", err)
	}
	return l, nil
}

// AddDevice opens path and inserts it into the pool. Open failures are
// logged and skipped, registration failures propagate.
func (l *Loop) AddDevice(path string) error {
	dev, err := l.open(path)
	if err != nil {
		log.Info(fmt.Sprintf("cannot open device: %v", err), zap.String("device_path", path), logger.Warning)
		return nil
	}

	before := l.pool.Len()
	if err := l.pool.Insert(dev); err != nil {
		return err
	}
	if l.pool.Len() == before { // duplicate path
		return nil
	}

	log.Info(fmt.Sprintf("device connected: %s", dev), logger.Info)

	if prof, ok := l.profiles.Find(dev.ID().Vendor, dev.ID().Product); ok {
		cfg := prof.Apply(l.baseParams.Transform)
		if err := l.transform.Reconfigure(cfg); err != nil {
			log.Info(fmt.Sprintf("device profile rejected: %v", err), zap.String("device_name", dev.Name()), logger.Warning)
		} else {
			log.Info("device profile applied", zap.String("device_name", dev.Name()), logger.Info)
		}
	}
	return nil
}

// Populate inserts every device path known right now, for startup.
func (l *Loop) Populate(paths []string) error {
	for _, path := range paths {
		if err := l.AddDevice(path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) handleHotplug() error {
	events, err := l.hp.Read()
	if err != nil {
		log.Info(fmt.Sprintf("reading hotplug events failed: %v", err), logger.Warning)
	}
	for _, ev := range events {
		log.Info(fmt.Sprintf("device node %s", ev.Op), zap.String("device_path", ev.Path), logger.Debug)
		switch ev.Op {
		case hotplug.Added:
			if err := l.AddDevice(ev.Path); err != nil {
				return err
			}
		case hotplug.Removed:
			if err := l.pool.RemoveByPath(ev.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain reads the device behind token until it reports no pending sample.
// A device that turns out to be gone is removed from the pool here, before
// the hotplug source gets around to reporting it.
func (l *Loop) drain(token int) error {
	dev, ok := l.pool.Get(token)
	if !ok {
		return nil
	}

	for {
		sample, err := dev.NextEvent()
		if err != nil {
			if input.IsGone(err) {
				log.Info(fmt.Sprintf("device disappeared: %s", dev), logger.Info)
				return l.pool.RemoveByToken(token)
			}
			log.Info(fmt.Sprintf("reading sample failed: %v", err), zap.String("device_path", dev.Path()), logger.Warning)
			return nil
		}
		if sample == nil {
			return nil
		}

		switch sample.Axis {
		case input.AxisX:
			l.transform.FeedX(sample.Value)
		case input.AxisY:
			l.transform.FeedY(sample.Value)
		default:
			continue
		}

		vx, vy := l.transform.Velocity()
		l.integrator.SetVelocity(vx, vy)
		log.Info(fmt.Sprintf("axis %s = %d, velocity = (%.3f, %.3f)", sample.Axis, sample.Value, vx, vy), logger.Analog)
	}
}

func (l *Loop) applyReload() {
	if l.reload == nil {
		return
	}
	select {
	case params, ok := <-l.reload:
		if !ok {
			l.reload = nil
			return
		}
		if err := l.transform.Reconfigure(params.Transform); err != nil {
			log.Info(fmt.Sprintf("reloaded configuration rejected: %v", err), logger.Warning)
			return
		}
		l.integrator.SetSpeed(params.Speed)
		l.baseParams = params
		log.Info("configuration reloaded", logger.Info)
	default:
	}
}

// RunOnce performs one wait/dispatch/flush cycle. Errors it returns are
// fatal: either the pool and multiplexer can no longer be kept consistent,
// or the output device stopped accepting motion.
func (l *Loop) RunOnce() error {
	ready, err := l.mux.Wait(l.timeoutMs)
	if err != nil {
		return err
	}

	for _, r := range ready {
		switch {
		case r.Token == HotplugToken:
			if err := l.handleHotplug(); err != nil {
				return err
			}
		case l.pool.Contains(r.Token):
			if err := l.drain(r.Token); err != nil {
				return err
			}
		default:
			log.Info(fmt.Sprintf("readiness for unknown token %d", r.Token), logger.Warning)
		}
	}

	l.applyReload()

	now := l.now()
	dt := now.Sub(l.last).Seconds()
	l.last = now

	dx, dy := l.integrator.Flush(dt)
	if dx != 0 || dy != 0 {
		if err := l.sink.Move(dx, dy); err != nil {
			return fmt.Errorf("emitting pointer motion: %w", err)
		}
	}
	return nil
}

// Run drives RunOnce until the context is cancelled or a fatal error
// occurs.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return l.pool.Close()
		default:
		}
		if err := l.RunOnce(); err != nil {
			_ = l.pool.Close()
			return err
		}
	}
}

// Devices returns the number of devices currently in the pool.
func (l *Loop) Devices() int {
	return l.pool.Len()
}
