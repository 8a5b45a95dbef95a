package harness

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport carries blocks as binary websocket messages over a loopback
// server, exercising the pipeline across a stream-framed transport instead
// of datagrams. Message boundaries preserve block boundaries.
type wsTransport struct {
	server   *http.Server
	listener net.Listener
	accepted chan *websocket.Conn
	sender   *websocket.Conn
	receiver *websocket.Conn
}

func newWSTransport() (*wsTransport, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	t := &wsTransport{
		listener: listener,
		accepted: make(chan *websocket.Conn, 1),
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case t.accepted <- conn:
		default:
			conn.Close()
		}
	})
	t.server = &http.Server{Handler: mux}
	go t.server.Serve(listener)

	dialer := websocket.Dialer{HandshakeTimeout: recvTimeout}
	url := fmt.Sprintf("ws://%s/", listener.Addr())
	sender, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("dial: %w", err)
	}
	t.sender = sender

	select {
	case t.receiver = <-t.accepted:
	case <-time.After(recvTimeout):
		t.Close()
		return nil, fmt.Errorf("accept: no websocket connection within %s", recvTimeout)
	}

	return t, nil
}

func (t *wsTransport) Send(block []byte) error {
	return t.sender.WriteMessage(websocket.BinaryMessage, block)
}

func (t *wsTransport) Recv(buffer []byte) (int, error) {
	if err := t.receiver.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return 0, err
	}
	_, message, err := t.receiver.ReadMessage()
	if err != nil {
		return 0, err
	}
	return copy(buffer, message), nil
}

func (t *wsTransport) Close() error {
	if t.sender != nil {
		t.sender.Close()
	}
	if t.receiver != nil {
		t.receiver.Close()
	}
	if t.server != nil {
		t.server.Close()
	}
	return nil
}
