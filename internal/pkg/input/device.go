//go:build linux

package input

import (
	"bytes"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Axis tells which logical axis a sample belongs to.
type Axis int

const (
	AxisOther Axis = iota
	AxisX
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "Other"
	}
}

// Sample is a single absolute axis reading taken from a device.
type Sample struct {
	Axis  Axis
	Value int32
}

// InputID identifies the hardware behind an event node.
type InputID struct {
	Bus     uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// Device is one open, non-blocking /dev/input/event* handle.
type Device struct {
	path string
	fd   int
	name string
	id   InputID
}

// Open opens the event node in non-blocking mode and reads its identity.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open \"%s\": %w", path, err)
	}

	d := &Device{path: path, fd: fd}

	var id deviceID
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgid(), uintptr(unsafe.Pointer(&id)))
	if errno == 0 {
		d.id = InputID{Bus: id.Bus, Vendor: id.Vendor, Product: id.Product, Version: id.Version}
	}

	buf := make([]byte, 256)
	_, _, errno = unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgname(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	if errno == 0 {
		if i := bytes.IndexByte(buf, 0); i > 0 {
			d.name = string(buf[:i])
		}
	}

	return d, nil
}

func (d *Device) Path() string { return d.path }
func (d *Device) Fd() int      { return d.fd }
func (d *Device) Name() string { return d.name }
func (d *Device) ID() InputID  { return d.id }

func (d *Device) String() string {
	return fmt.Sprintf("\"%s\" (%04x:%04x, %s)", d.name, d.id.Vendor, d.id.Product, d.path)
}

// NextEvent returns the next pending axis sample. A nil sample with a nil
// error means nothing is ready right now. Events other than ABS_X/ABS_Y are
// reported with AxisOther so the caller can skip them without another read.
func (d *Device) NextEvent() (*Sample, error) {
	buf := make([]byte, rawEventSize)
	n, err := unix.Read(d.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil, nil
		}
		return nil, err
	}
	if n < rawEventSize {
		return nil, fmt.Errorf("short read from \"%s\": %d bytes", d.path, n)
	}

	ev := (*rawEvent)(unsafe.Pointer(&buf[0]))

	var axis = AxisOther
	if ev.Type == EV_ABS {
		switch ev.Code {
		case ABS_X:
			axis = AxisX
		case ABS_Y:
			axis = AxisY
		}
	}

	return &Sample{Axis: axis, Value: ev.Value}, nil
}

// IsGone reports whether err means the underlying device disappeared.
func IsGone(err error) bool {
	return errors.Is(err, unix.ENODEV)
}

func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
