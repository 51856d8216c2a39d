//go:build linux

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIoctlNumbers(t *testing.T) {
	// values from linux/input.h
	assert.Equal(t, uintptr(0x80084502), eviocgid())
	assert.Equal(t, uintptr(0x81004506), eviocgname(256))
}

func TestRawEventSize(t *testing.T) {
	// struct input_event with 64-bit time_t
	assert.Equal(t, 24, rawEventSize)
}
