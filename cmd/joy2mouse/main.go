package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naegi/joy2mouse/internal/pkg/engine"
	"github.com/naegi/joy2mouse/internal/pkg/epoll"
	"github.com/naegi/joy2mouse/internal/pkg/hotplug"
	"github.com/naegi/joy2mouse/internal/pkg/input"
	"github.com/naegi/joy2mouse/internal/pkg/logger"
	"github.com/naegi/joy2mouse/internal/pkg/mouse"
	"github.com/naegi/joy2mouse/internal/pkg/profile"
)

var log = logger.GetLogger()

var (
	configPath = flag.String("config", "joy2mouse.config", "path to the configuration file")
	logLevel   = flag.Int("loglevel", 2,
		"logging level, each level enables an additional information class (0-4)\n"+
			"0: errors\n"+
			"1: warnings\n"+
			"2: general info (device appearance, config reloads)\n"+
			"3: analog axis samples (noisy)\n"+
			"4: debug",
	)
	silent  = flag.Bool("silent", false, "no output logging, best performance")
	noColor = flag.Bool("nocolor", false, "disable color")
	list    = flag.Bool("list", false, "list available input devices and exit")
)

func listDevices() {
	paths, err := input.ListDevicePaths()
	if err != nil {
		fmt.Printf("cannot list devices: %v\n", err)
		return
	}
	for _, path := range paths {
		dev, err := input.Open(path)
		if err != nil {
			fmt.Printf("%s:\t(%v)\n", path, err)
			continue
		}
		fmt.Printf("%s:\t%s\n", path, dev.Name())
		_ = dev.Close()
	}
}

func run(ctx context.Context) error {
	if err := createConfigIfNeeded(*configPath); err != nil {
		return err
	}
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	profiles, err := profile.Load(cfg.ProfilesPath)
	if err != nil {
		return err
	}

	vmouse, err := mouse.NewVirtualMouse("joy2mouse virtual pointer")
	if err != nil {
		return err
	}
	defer vmouse.Close()

	poller, err := epoll.New(1024)
	if err != nil {
		return err
	}
	defer poller.Close()

	watcher, err := hotplug.NewWatcher("/dev/input")
	if err != nil {
		return err
	}
	defer watcher.Close()

	loop, err := engine.New(engine.Config{
		Mux:     poller,
		Hotplug: watcher,
		Sink:    vmouse,
		Open: func(path string) (engine.Device, error) {
			return input.Open(path)
		},
		Profiles:    profiles,
		Reload:      DetectConfigChanges(ctx, *configPath),
		Params:      cfg.Params(),
		WaitTimeout: cfg.WaitTimeout,
	})
	if err != nil {
		return err
	}

	paths, err := input.ListDevicePaths()
	if err != nil {
		return err
	}
	if err := loop.Populate(paths); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("engaged with %d devices", loop.Devices()), logger.Info)
	return loop.Run(ctx)
}

func main() {
	flag.Parse()

	go consumeLogs(*silent, *noColor, *logLevel)

	exit := func(code int) {
		// let the renderer catch up before terminating
		for len(logger.Messages) > 0 {
			time.Sleep(10 * time.Millisecond)
		}
		os.Exit(code)
	}

	if *list {
		listDevices()
		exit(0)
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sigs
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Info)
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Info(err.Error(), logger.Error)
		exit(1)
	}
	exit(0)
}
