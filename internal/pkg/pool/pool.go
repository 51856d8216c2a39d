package pool

import (
	"fmt"

	"github.com/naegi/joy2mouse/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Device is what the pool manages: an open handle with a stable path and a
// file descriptor it can hand to the multiplexer.
type Device interface {
	Path() string
	Fd() int
	Close() error
}

// Registrar mirrors pool membership into the readiness multiplexer.
// Registrations are keyed by fd, readiness is reported by token.
type Registrar interface {
	Add(fd, token int) error
	Mod(fd, token int) error
	Del(fd int) error
}

// Pool owns the live devices and their multiplexer registrations. Tokens are
// positional: the device at index i answers to token tokenStart+i, so tokens
// in use always form the contiguous range [tokenStart, tokenStart+Len()).
// Removal swaps the doomed slot with the last one and rebinds the relocated
// device to the vacated token, which keeps removal O(1).
type Pool[D Device] struct {
	tokenStart int
	reg        Registrar
	devices    []D
	paths      map[string]struct{}
}

func New[D Device](tokenStart int, reg Registrar) *Pool[D] {
	return &Pool[D]{
		tokenStart: tokenStart,
		reg:        reg,
		paths:      make(map[string]struct{}),
	}
}

func (p *Pool[D]) token(index int) int {
	return p.tokenStart + index
}

func (p *Pool[D]) index(token int) int {
	return token - p.tokenStart
}

func (p *Pool[D]) Len() int {
	return len(p.devices)
}

// Contains reports whether token currently resolves to a live device.
func (p *Pool[D]) Contains(token int) bool {
	i := p.index(token)
	return i >= 0 && i < len(p.devices)
}

func (p *Pool[D]) Get(token int) (D, bool) {
	var zero D
	if !p.Contains(token) {
		return zero, false
	}
	return p.devices[p.index(token)], true
}

// Insert adds the device under the next free token and registers it with
// the multiplexer. Inserting a path that is already present is a no-op, the
// device is closed and no error is returned. A registration failure is
// returned to the caller and leaves the pool unchanged.
func (p *Pool[D]) Insert(dev D) error {
	path := dev.Path()
	if _, ok := p.paths[path]; ok {
		log.Info("device already in pool, ignoring", zap.String("device_path", path), logger.Debug)
		_ = dev.Close()
		return nil
	}

	token := p.token(len(p.devices))
	if err := p.reg.Add(dev.Fd(), token); err != nil {
		_ = dev.Close()
		return fmt.Errorf("registering \"%s\": %w", path, err)
	}

	p.devices = append(p.devices, dev)
	p.paths[path] = struct{}{}
	return nil
}

// RemoveByPath removes the device opened from path. An unknown path is a
// logged no-op.
func (p *Pool[D]) RemoveByPath(path string) error {
	for i, dev := range p.devices {
		if dev.Path() == path {
			return p.remove(i)
		}
	}
	log.Info("path not in pool, ignoring", zap.String("device_path", path), logger.Debug)
	return nil
}

// RemoveByToken removes the device behind token. The token must be in range,
// anything else is a bug in the caller.
func (p *Pool[D]) RemoveByToken(token int) error {
	if !p.Contains(token) {
		panic(fmt.Sprintf("token %d out of pool range [%d, %d)", token, p.tokenStart, p.token(len(p.devices))))
	}
	return p.remove(p.index(token))
}

func (p *Pool[D]) remove(index int) error {
	last := len(p.devices) - 1
	if index != last {
		p.devices[index], p.devices[last] = p.devices[last], p.devices[index]
		// the relocated device now answers to the vacated token,
		// the multiplexer has to learn about that
		if err := p.reg.Mod(p.devices[index].Fd(), p.token(index)); err != nil {
			return fmt.Errorf("rebinding \"%s\": %w", p.devices[index].Path(), err)
		}
	}

	dev := p.devices[last]
	p.devices = p.devices[:last]
	delete(p.paths, dev.Path())

	if err := p.reg.Del(dev.Fd()); err != nil {
		_ = dev.Close()
		return fmt.Errorf("deregistering \"%s\": %w", dev.Path(), err)
	}
	if err := dev.Close(); err != nil {
		log.Info(fmt.Sprintf("closing device failed: %v", err), zap.String("device_path", dev.Path()), logger.Warning)
	}
	return nil
}

// Close removes every device, keeping the multiplexer consistent on the way
// out. The first error is returned, remaining devices are still closed.
func (p *Pool[D]) Close() error {
	var firstErr error
	for len(p.devices) > 0 {
		if err := p.remove(len(p.devices) - 1); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
