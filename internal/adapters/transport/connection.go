/*
 * file: connection.go
 * package: transport
 * description:
 *     Binds one net.Conn to a services.Client. Runs a writer goroutine
 *     draining the client's outbound frame channel and a reader loop
 *     feeding frames to a dispatch function, the Go re-expression of the
 *     readPump/writePump pair the originating websocket transport used.
 */

package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/juan10024/jeux-server/internal/adapters/wire"
	"github.com/juan10024/jeux-server/internal/core/services"
)

// Dispatch handles one received frame for client and returns the frame to
// reply with, typically an ACK or NACK.
type Dispatch func(ctx context.Context, client *services.Client, h wire.Header, payload []byte) wire.Frame

// Connection owns the lifecycle of a single accepted socket.
type Connection struct {
	conn   net.Conn
	client *services.Client
	log    zerolog.Logger
}

// New wraps conn with the client session it will drive.
func New(conn net.Conn, client *services.Client, log zerolog.Logger) *Connection {
	return &Connection{conn: conn, client: client, log: log}
}

// Serve runs the writer goroutine and the blocking read loop, calling
// dispatch for every frame received. It returns when the connection's
// read side reaches EOF or a read error occurs, or when ctx is found done
// between frames; a read already blocked is not interrupted by ctx.
func (c *Connection) Serve(ctx context.Context, dispatch Dispatch) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readLoop(ctx, dispatch)

	c.client.CloseOutbound()
	<-writerDone
}

func (c *Connection) writePump() {
	w := bufio.NewWriter(c.conn)
	for frame := range c.client.Outbound() {
		if frame.Header.TimestampSec == 0 {
			now := time.Now()
			frame.Header.TimestampSec = uint32(now.Unix())
			frame.Header.TimestampNsec = uint32(now.Nanosecond())
		}
		if err := wire.WriteFrame(w, frame.Header, frame.Payload); err != nil {
			c.log.Debug().Err(err).Msg("write frame failed")
			return
		}
		if err := w.Flush(); err != nil {
			c.log.Debug().Err(err).Msg("flush failed")
			return
		}
	}
}

func (c *Connection) readLoop(ctx context.Context, dispatch Dispatch) {
	r := bufio.NewReader(c.conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		h, payload, err := wire.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debug().Err(err).Msg("read frame failed")
			}
			return
		}

		reply := dispatch(ctx, c.client, h, payload)
		c.client.Send(reply)
	}
}

// HalfCloseRead closes the read side of the underlying connection so a
// blocked Read in readLoop returns with an error, letting the per-
// connection goroutine unwind through logout and unregister on its own.
func HalfCloseRead(conn net.Conn) {
	if tc, ok := conn.(interface{ CloseRead() error }); ok {
		_ = tc.CloseRead()
		return
	}
	_ = conn.Close()
}
