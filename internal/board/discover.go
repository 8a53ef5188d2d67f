package board

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// DiscoverSerialPort enumerates tty-subsystem devices via udev and
// returns the first device node found, for use when --serial_port is
// left unset. This generalizes the teacher's device-discovery intent
// in src/cm108.go (finding the right /dev node among several USB
// adapters without requiring the operator to guess it) from a
// cgo/libudev HID lookup to the Go udev binding, applied to the
// board's serial transport instead of a USB-audio PTT pin.
func DiscoverSerialPort() (string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()

	if err := e.AddMatchSubsystem("tty"); err != nil {
		return "", fmt.Errorf("board: udev match subsystem: %w", err)
	}

	devices, err := e.Devices()
	if err != nil {
		return "", fmt.Errorf("board: udev enumerate: %w", err)
	}

	for _, d := range devices {
		node := d.Devnode()
		if node != "" {
			return node, nil
		}
	}

	return "", fmt.Errorf("board: no tty device found via udev")
}
