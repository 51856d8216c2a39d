//go:build linux

package mouse

import (
	"fmt"
	"syscall"
	"time"

	"github.com/holoplot/go-evdev"
)

// VirtualMouse is the synthetic relative pointer everything is emitted to.
// It is created once at startup and owns its uinput device exclusively.
type VirtualMouse struct {
	dev *evdev.InputDevice
}

func NewVirtualMouse(name string) (*VirtualMouse, error) {
	// button capabilities are required for the device to be picked up
	// as a pointer by most environments
	dev, err := evdev.CreateDevice(
		name,
		evdev.InputID{
			BusType: 0x03,
			Vendor:  0xabcd,
			Product: 0xefef,
			Version: 1,
		},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: {
				evdev.BTN_LEFT,
				evdev.BTN_RIGHT,
			},
			evdev.EV_REL: {
				evdev.REL_X,
				evdev.REL_Y,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create uinput device: %w", err)
	}
	return &VirtualMouse{dev: dev}, nil
}

// Move emits both axis deltas followed by a single synchronization report,
// so the compositor observes one atomic pointer update.
func (m *VirtualMouse) Move(dx, dy int32) error {
	evTime := syscall.NsecToTimeval(time.Now().UnixNano())

	if dx != 0 {
		err := m.dev.WriteOne(&evdev.InputEvent{Time: evTime, Type: evdev.EV_REL, Code: evdev.REL_X, Value: dx})
		if err != nil {
			return fmt.Errorf("writing REL_X: %w", err)
		}
	}
	if dy != 0 {
		err := m.dev.WriteOne(&evdev.InputEvent{Time: evTime, Type: evdev.EV_REL, Code: evdev.REL_Y, Value: dy})
		if err != nil {
			return fmt.Errorf("writing REL_Y: %w", err)
		}
	}

	err := m.dev.WriteOne(&evdev.InputEvent{Time: evTime, Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0})
	if err != nil {
		return fmt.Errorf("writing SYN_REPORT: %w", err)
	}
	return nil
}

func (m *VirtualMouse) Close() error {
	return m.dev.Close()
}
