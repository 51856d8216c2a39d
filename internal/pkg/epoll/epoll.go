//go:build linux

package epoll

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Ready is one readiness notification. Token is whatever value the fd was
// registered with, it carries no meaning here.
type Ready struct {
	Token int
	Flags uint32
}

// Poller multiplexes readiness of registered file descriptors through one
// epoll instance. The token travels in the epoll event payload, so rebinding
// a fd to a different token requires an explicit Mod call.
type Poller struct {
	epfd   int
	events []unix.EpollEvent
	ready  []Ready
}

func New(capacity int) (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Poller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, capacity),
		ready:  make([]Ready, 0, capacity),
	}, nil
}

func (p *Poller) ctl(op, fd, token int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT,
		Fd:     int32(token),
	}
	return unix.EpollCtl(p.epfd, op, fd, &ev)
}

// Add registers fd under the given token.
func (p *Poller) Add(fd, token int) error {
	if err := p.ctl(unix.EPOLL_CTL_ADD, fd, token); err != nil {
		return fmt.Errorf("epoll_ctl add fd %d token %d: %w", fd, token, err)
	}
	return nil
}

// Mod rebinds an already registered fd to a different token.
func (p *Poller) Mod(fd, token int) error {
	if err := p.ctl(unix.EPOLL_CTL_MOD, fd, token); err != nil {
		return fmt.Errorf("epoll_ctl mod fd %d token %d: %w", fd, token, err)
	}
	return nil
}

// Del drops the registration of fd.
func (p *Poller) Del(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Wait blocks until readiness or timeout (milliseconds, 0 returns
// immediately). EINTR is retried internally. The returned slice is reused
// across calls.
func (p *Poller) Wait(timeoutMs int) ([]Ready, error) {
	var n int
	var err error
	for {
		n, err = unix.EpollWait(p.epfd, p.events, timeoutMs)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}

	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		p.ready = append(p.ready, Ready{
			Token: int(p.events[i].Fd),
			Flags: p.events[i].Events,
		})
	}
	return p.ready, nil
}

func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
