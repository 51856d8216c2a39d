//go:build linux

package input

import "unsafe"

// Subset of linux/input.h and linux/input-event-codes.h needed for reading
// absolute axis events from /dev/input/event* nodes.

const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	SYN_REPORT = 0x00

	ABS_X = 0x00
	ABS_Y = 0x01
)

// rawEvent matches struct input_event, kernel 5.14.15 (64-bit time_t).
type rawEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const rawEventSize = int(unsafe.Sizeof(rawEvent{}))

// deviceID matches struct input_id, used by the EVIOCGID ioctl.
type deviceID struct {
	Bus     uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// _IOC layout: dir (2 bits) | size (14 bits) | type (8 bits) | nr (8 bits)
const iocRead = 2

func _IOC(dir, typ, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | typ<<8 | nr
}

func eviocgid() uintptr {
	return _IOC(iocRead, 'E', 0x02, unsafe.Sizeof(deviceID{}))
}

func eviocgname(length int) uintptr {
	return _IOC(iocRead, 'E', 0x06, uintptr(length))
}
