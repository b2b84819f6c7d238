package lumed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"golang.org/x/sync/errgroup"
)

type previewMessageType string

const (
	previewHello previewMessageType = "hello"
	previewFrame previewMessageType = "frame"
)

// previewMessage is a message sent to a preview client. Frames carry one
// packed RGB value per LED, see xcolor.RGB.ToUint.
type previewMessage struct {
	Type    previewMessageType `json:"type"`
	Session string             `json:"session,omitempty"`
	LEDs    []uint32           `json:"leds,omitempty"`
}

// closeWriteTimeout bounds how long a kicked client gets to take its close
// frame.
const closeWriteTimeout = 2 * time.Second

var errClientClosed = errors.New("client closed the websocket")

type websocketServer struct {
	// Sending is a channel of messages to send to the client.
	Sending chan previewMessage

	wsconn io.ReadWriteCloser
	logger *slog.Logger
}

func newWebsocketServer(wsconn io.ReadWriteCloser, logger *slog.Logger) *websocketServer {
	return &websocketServer{
		Sending: make(chan previewMessage),
		wsconn:  wsconn,
		logger:  logger,
	}
}

// Send sends a message to the client.
func (s *websocketServer) Send(ctx context.Context, msg previewMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.Sending <- msg:
		return nil
	}
}

// Start serves the connection until ctx is done or the client closes it.
// The latter is not an error. If ctx was canceled with a cause, such as a
// kick, the cause is sent to the client in a close frame.
func (s *websocketServer) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()

		cause := context.Cause(ctx)
		s.logger.DebugContext(ctx,
			"closing websocket",
			"cause", cause)

		if !errors.Is(cause, context.Canceled) && !errors.Is(cause, errClientClosed) {
			s.writeClose(ctx, ws.StatusGoingAway, cause.Error())
		}

		if err := s.wsconn.Close(); err != nil {
			return fmt.Errorf("failed to close websocket: %w", err)
		}
		return nil
	})

	errg.Go(func() error {
		for {
			// Preview clients have nothing to say. Reading only keeps
			// pings and closes answered.
			_, _, err := wsutil.ReadClientData(s.wsconn)
			if err == nil {
				continue
			}

			var closedErr wsutil.ClosedError
			if errors.As(err, &closedErr) {
				s.logger.DebugContext(ctx,
					"received close frame from client",
					"code", closedErr.Code)
				return errClientClosed
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from websocket: %w", err)
		}
	})

	errg.Go(func() error {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case msg := <-s.Sending:
				buf.Reset()

				if err := enc.Encode(msg); err != nil {
					return fmt.Errorf("failed to marshal message: %w", err)
				}

				if err := wsutil.WriteServerText(s.wsconn, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
					return fmt.Errorf("failed to write to websocket: %w", err)
				}
			}
		}
	})

	if err := errg.Wait(); !errors.Is(err, errClientClosed) {
		return err
	}
	return nil
}

func (s *websocketServer) writeClose(ctx context.Context, code ws.StatusCode, reason string) {
	if conn, ok := s.wsconn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
	}

	if err := ws.WriteFrame(s.wsconn, ws.NewCloseFrame(ws.NewCloseFrameBody(code, reason))); err != nil {
		s.logger.WarnContext(ctx,
			"failed to write close frame",
			"error", err)
	}
}
