package canbus

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type Transmitter interface {
	TransmitFrame(ctx context.Context, f can.Frame) error
}

// Receiver is the blocking frame iterator socketcan.Receiver provides.
type Receiver interface {
	Receive() bool
	Frame() can.Frame
	Err() error
}

// Bus is one SocketCAN interface opened for both directions.
type Bus struct {
	txConn net.Conn
	rxConn net.Conn
	tx     *socketcan.Transmitter
	rx     *socketcan.Receiver
}

// Dial opens iface, e.g. "can0" or "vcan0".
func Dial(ctx context.Context, iface string) (*Bus, error) {
	txConn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	rxConn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		txConn.Close()
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	return &Bus{
		txConn: txConn,
		rxConn: rxConn,
		tx:     socketcan.NewTransmitter(txConn),
		rx:     socketcan.NewReceiver(rxConn),
	}, nil
}

func (b *Bus) Transmitter() Transmitter { return b.tx }
func (b *Bus) Receiver() Receiver       { return b.rx }

// Close shuts both sockets, which also unblocks a pending Receive.
func (b *Bus) Close() error {
	errTx := b.txConn.Close()
	errRx := b.rxConn.Close()
	if errTx != nil {
		return errTx
	}
	return errRx
}
