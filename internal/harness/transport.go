package harness

import (
	"fmt"
	"net"
	"time"
)

// transport carries blocks from the shaper to the policer. Implementations
// preserve block boundaries, like the datagrams of the original pipeline.
type transport interface {
	// Send emits one block.
	Send(block []byte) error
	// Recv returns the next block, or an error after the deadline.
	Recv(buffer []byte) (int, error)
	// Close releases both ends.
	Close() error
}

// recvTimeout bounds how long the policer waits for a block before the
// pipeline is declared wedged.
const recvTimeout = 10 * time.Second

// udpTransport sends blocks as loopback datagrams.
type udpTransport struct {
	source *net.UDPConn // receiving end
	sink   *net.UDPConn // sending end
}

func newUDPTransport() (*udpTransport, error) {
	source, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		return nil, fmt.Errorf("bind source: %w", err)
	}

	sink, err := net.DialUDP("udp", nil, source.LocalAddr().(*net.UDPAddr))
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("dial sink: %w", err)
	}

	return &udpTransport{source: source, sink: sink}, nil
}

func (t *udpTransport) Send(block []byte) error {
	_, err := t.sink.Write(block)
	return err
}

func (t *udpTransport) Recv(buffer []byte) (int, error) {
	if err := t.source.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return 0, err
	}
	return t.source.Read(buffer)
}

func (t *udpTransport) Close() error {
	serr := t.sink.Close()
	rerr := t.source.Close()
	if serr != nil {
		return serr
	}
	return rerr
}
