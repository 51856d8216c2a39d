package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-ini/ini"
	"github.com/naegi/joy2mouse/internal/pkg/engine"
	"github.com/naegi/joy2mouse/internal/pkg/logger"
	"github.com/naegi/joy2mouse/internal/pkg/motion"
)

//go:embed joy2mouse.config
var templateConfig []byte

type Config struct {
	Speed    float64
	Joystick motion.TransformConfig

	WaitTimeout  time.Duration
	ProfilesPath string
}

func (c Config) Params() engine.Params {
	return engine.Params{Speed: c.Speed, Transform: c.Joystick}
}

// createConfigIfNeeded writes the default configuration template on first
// run, so there is always a file to edit.
func createConfigIfNeeded(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot stat \"%s\": %w", path, err)
	}

	if err := os.WriteFile(path, templateConfig, 0o666); err != nil {
		return fmt.Errorf("cannot write default config \"%s\": %w", path, err)
	}
	log.Info(fmt.Sprintf("created default configuration: \"%s\"", path), logger.Info)
	return nil
}

func LoadConfig(path string) (Config, error) {
	var c Config

	cfg, err := ini.Load(path)
	if err != nil {
		return c, fmt.Errorf("cannot load config \"%s\": %w", path, err)
	}

	mouse, err := cfg.GetSection("mouse")
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	speed, err := mouse.GetKey("speed")
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	c.Speed, err = speed.Float64()
	if err != nil {
		return c, fmt.Errorf("config: speed: %w", err)
	}

	joystick, err := cfg.GetSection("joystick")
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	for _, field := range []struct {
		key string
		dst *float64
	}{
		{"dead_zone", &c.Joystick.DeadZone},
		{"half_amplitude", &c.Joystick.HalfAmplitude},
		{"offset", &c.Joystick.Offset},
		{"angle", &c.Joystick.AngleDegrees},
	} {
		key, err := joystick.GetKey(field.key)
		if err != nil {
			return c, fmt.Errorf("config: %w", err)
		}
		*field.dst, err = key.Float64()
		if err != nil {
			return c, fmt.Errorf("config: %s: %w", field.key, err)
		}
	}

	c.WaitTimeout = 10 * time.Millisecond
	c.ProfilesPath = "profiles.yaml"
	if daemon, err := cfg.GetSection("joy2mouse"); err == nil {
		if key, err := daemon.GetKey("poll_rate"); err == nil {
			rate, err := key.Int()
			if err != nil || rate <= 0 {
				return c, fmt.Errorf("config: poll_rate must be a positive integer")
			}
			c.WaitTimeout = time.Second / time.Duration(rate)
		}
		if key, err := daemon.GetKey("profiles"); err == nil {
			c.ProfilesPath = key.String()
		}
	}

	// a degenerate joystick section must never make it into the loop
	if err := c.Joystick.Validate(); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// DetectConfigChanges watches the configuration file and delivers freshly
// validated parameters whenever an edit produces a loadable config. Broken
// edits are logged and dropped, the running parameters stay.
func DetectConfigChanges(ctx context.Context, path string) <-chan engine.Params {
	var change = make(chan engine.Params, 1)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Info(fmt.Sprintf("cannot watch config changes: %v", err), logger.Warning)
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		if err := watcher.Add(path); err != nil {
			log.Info(fmt.Sprintf("cannot watch \"%s\": %v", path, err), logger.Warning)
			return
		}

		for event := range watcher.Events {
			if event.Op&fsnotify.Write == 0 {
				continue
			}

			cfg, err := LoadConfig(path)
			if err != nil {
				log.Info(fmt.Sprintf("config change ignored: %v", err), logger.Warning)
				continue
			}
			log.Info(fmt.Sprintf("config change detected: %s", event.Name), logger.Info)

			// drop a stale pending update in favor of this one
			select {
			case <-change:
			default:
			}
			change <- cfg.Params()
		}
	}()

	return change
}
