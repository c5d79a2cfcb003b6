package link

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate of the board serial line.
const DefaultBaudRate = 115200

// OpenSerial opens the serial port to the board.
func OpenSerial(name string, baudRate int) (serial.Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return port, nil
}

// Ports lists the serial ports on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// DialSerial opens the serial port and wraps it with a Client.
func DialSerial(name string, baudRate int) (*Client, error) {
	port, err := OpenSerial(name, baudRate)
	if err != nil {
		return nil, err
	}
	return NewClient(port), nil
}
