// Package transport opens the physical paths a controller adapter
// enumerates as: a CDC-ACM serial port or a raw HID interface. Both
// openers return an io.ReadWriteCloser for device.NewSession; the
// session layer never sees which one it got.
package transport

import (
	"fmt"
	"io"

	"github.com/sstallion/go-hid"
	"go.bug.st/serial"
)

// DefaultBaudRate is the serial line rate. CDC-ACM devices ignore it,
// but a real UART bridge needs it to match.
const DefaultBaudRate = 115200

// OpenSerial opens the adapter's serial interface, 8 data bits, no
// parity, one stop bit.
func OpenSerial(path string) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// ListSerialPorts returns the serial port paths present on the system.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// OpenHID opens the adapter's raw HID interface by vendor and product
// ID. An empty serial number matches the first device found. The
// adapter uses unnumbered HID reports, so frames pass through without
// report-ID framing.
func OpenHID(vendorID, productID uint16, serialNumber string) (io.ReadWriteCloser, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("init hidapi: %w", err)
	}

	dev, err := hid.Open(vendorID, productID, serialNumber)
	if err != nil {
		return nil, fmt.Errorf("open HID device %04x:%04x: %w", vendorID, productID, err)
	}
	return dev, nil
}

// ListHID returns the device paths of attached HID interfaces matching
// the given vendor and product ID. Zero matches any.
func ListHID(vendorID, productID uint16) ([]string, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("init hidapi: %w", err)
	}

	var paths []string
	err := hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		paths = append(paths, info.Path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
