package shipclient

import (
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
)

// Reader pulls framed binary messages off one WebSocket connection and
// forwards the raw payload to rawCh in arrival order. It does no parsing;
// backpressure propagates through the bounded channel.
type Reader struct {
	conn  *websocket.Conn
	rawCh chan<- []byte
	stop  <-chan struct{}
	log   log.Logger
}

// NewReader returns a Reader that forwards frames from conn to rawCh
// until stop is closed, the peer closes the connection, or a read error
// occurs.
func NewReader(conn *websocket.Conn, rawCh chan<- []byte, stop <-chan struct{}) *Reader {
	return &Reader{conn: conn, rawCh: rawCh, stop: stop, log: log.New("component", "shipreader")}
}

// Run blocks until the reader stops. It never returns an error for a
// clean stop or peer close: those are the two ordinary shutdown paths.
// A transport read error is returned so the pipeline can fail fast.
func (r *Reader) Run() error {
	defer r.log.Info("exiting ship reader")

	type frame struct {
		data []byte
		err  error
	}
	frames := make(chan frame, 1)

	readNext := func() {
		_, data, err := r.conn.ReadMessage()
		frames <- frame{data: data, err: err}
	}
	go readNext()

	for {
		select {
		case <-r.stop:
			return nil
		case f := <-frames:
			if f.err != nil {
				select {
				case <-r.stop:
					// The stop signal races the connection teardown;
					// whichever surfaces first, this is a clean exit.
					return nil
				default:
				}
				if websocket.IsCloseError(f.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(f.err, io.EOF) {
					r.log.Info("ship connection closed")
					return nil
				}
				r.log.Error("ship read error", "err", f.err)
				return f.err
			}
			select {
			case r.rawCh <- f.data:
			case <-r.stop:
				return nil
			}
			go readNext()
		}
	}
}
