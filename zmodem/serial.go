package zmodem

import (
	"github.com/tarm/serial"
)

// SerialPort is a transport Port over a serial device. ZModem's
// natural habitat is an 8N1 line; the device and baud rate are the
// only knobs exposed.
type SerialPort struct {
	Port
	dev *serial.Port
}

// OpenSerialPort opens a serial device for ZModem transfers.
func OpenSerialPort(device string, baud int) (*SerialPort, error) {
	config := &serial.Config{
		Name:     device,
		Baud:     baud,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
	dev, err := serial.OpenPort(config)
	if err != nil {
		return nil, err
	}
	return &SerialPort{Port: NewPort(dev), dev: dev}, nil
}

// Close closes the underlying device.
func (s *SerialPort) Close() error {
	return s.dev.Close()
}
