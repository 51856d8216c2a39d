//go:build linux

package hotplug

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

type Op int

const (
	Added Op = iota
	Removed
)

func (o Op) String() string {
	if o == Removed {
		return "removed"
	}
	return "added"
}

// Event is one device node appearing or disappearing under /dev/input.
type Event struct {
	Op   Op
	Path string
}

// Watcher surfaces hot-plug notifications through an inotify descriptor
// that can be registered with the readiness multiplexer. IN_ATTRIB is
// watched alongside IN_CREATE because fresh event nodes are often not
// readable until udev fixes their permissions; duplicates are cheap since
// the pool rejects paths it already holds.
type Watcher struct {
	fd  int
	dir string
}

func NewWatcher(dir string) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}
	_, err = unix.InotifyAddWatch(fd, dir, unix.IN_CREATE|unix.IN_DELETE|unix.IN_ATTRIB)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("cannot watch \"%s\": %w", dir, err)
	}
	return &Watcher{fd: fd, dir: dir}, nil
}

func (w *Watcher) Fd() int {
	return w.fd
}

// Read drains every pending notification and returns them as events,
// filtered to event* input nodes. It never blocks.
func (w *Watcher) Read() ([]Event, error) {
	var events []Event
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return events, nil
			}
			return events, fmt.Errorf("reading inotify: %w", err)
		}
		events = append(events, w.parse(buf[:n])...)
	}
}

func (w *Watcher) parse(buf []byte) []Event {
	var events []Event
	var offset int
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameBytes := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+int(raw.Len)]
		offset += unix.SizeofInotifyEvent + int(raw.Len)

		name := string(bytes.TrimRight(nameBytes, "\x00"))
		if !strings.HasPrefix(name, "event") {
			continue
		}

		path := filepath.Join(w.dir, name)
		switch {
		case raw.Mask&unix.IN_DELETE != 0:
			events = append(events, Event{Op: Removed, Path: path})
		case raw.Mask&(unix.IN_CREATE|unix.IN_ATTRIB) != 0:
			events = append(events, Event{Op: Added, Path: path})
		}
	}
	return events
}

func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}
