//go:build linux

package hotplug

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

// packEvent builds one raw inotify record the way the kernel lays it out:
// the fixed header followed by a NUL-padded name.
func packEvent(mask uint32, name string) []byte {
	nameLen := (len(name)/4 + 1) * 4 // NUL terminated, padded to 4 bytes
	buf := make([]byte, unix.SizeofInotifyEvent+nameLen)

	raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[0]))
	raw.Mask = mask
	raw.Len = uint32(nameLen)
	copy(buf[unix.SizeofInotifyEvent:], name)
	return buf
}

func TestParseCreate(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}

	events := w.parse(packEvent(unix.IN_CREATE, "event5"))
	assert.Equal(t, []Event{{Op: Added, Path: "/dev/input/event5"}}, events)
}

func TestParseAttribReportsAdded(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}

	events := w.parse(packEvent(unix.IN_ATTRIB, "event5"))
	assert.Equal(t, []Event{{Op: Added, Path: "/dev/input/event5"}}, events)
}

func TestParseDelete(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}

	events := w.parse(packEvent(unix.IN_DELETE, "event12"))
	assert.Equal(t, []Event{{Op: Removed, Path: "/dev/input/event12"}}, events)
}

func TestParseFiltersNonEventNodes(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}

	var buf []byte
	buf = append(buf, packEvent(unix.IN_CREATE, "js0")...)
	buf = append(buf, packEvent(unix.IN_CREATE, "mouse1")...)
	buf = append(buf, packEvent(unix.IN_CREATE, "event3")...)
	buf = append(buf, packEvent(unix.IN_DELETE, "by-id")...)

	events := w.parse(buf)
	assert.Equal(t, []Event{{Op: Added, Path: "/dev/input/event3"}}, events)
}

func TestParseMultiple(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}

	var buf []byte
	buf = append(buf, packEvent(unix.IN_CREATE, "event3")...)
	buf = append(buf, packEvent(unix.IN_DELETE, "event4")...)

	events := w.parse(buf)
	assert.Equal(t, []Event{
		{Op: Added, Path: "/dev/input/event3"},
		{Op: Removed, Path: "/dev/input/event4"},
	}, events)
}

func TestParseEmpty(t *testing.T) {
	w := &Watcher{dir: "/dev/input"}
	assert.Equal(t, 0, len(w.parse(nil)))
}
