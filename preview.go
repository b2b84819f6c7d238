package lumed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"github.com/gobwas/ws"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"
	"gopkg.in/typ.v4/sync2"
)

// PreviewOpts are options for a preview server.
type PreviewOpts struct {
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// PreviewServer streams every frame shown on the strip to websocket clients.
// It implements FrameSink.
type PreviewServer struct {
	opts     PreviewOpts
	sessions sync2.Map[*PreviewSession, sessionControl]
}

var _ FrameSink = (*PreviewServer)(nil)

type sessionControl struct {
	cancel context.CancelCauseFunc
}

// NewPreviewServer creates a new preview server.
func NewPreviewServer(opts PreviewOpts) *PreviewServer {
	return &PreviewServer{
		opts: opts,
	}
}

// KickAllConnections kicks all connections from the server.
// Optionally, a reason can be provided.
func (s *PreviewServer) KickAllConnections(reason string) {
	var err error
	if reason != "" {
		err = fmt.Errorf("kicked: %s", reason)
	} else {
		err = fmt.Errorf("kicked")
	}

	s.sessions.Range(func(s *PreviewSession, ctrl sessionControl) bool {
		ctrl.cancel(err)
		return true
	})
}

// PublishFrame implements FrameSink. Sessions that are behind only get the
// latest frame.
func (s *PreviewServer) PublishFrame(frame leddraw.LEDStrip) {
	s.sessions.Range(func(session *PreviewSession, _ sessionControl) bool {
		session.queueFrame(frame)
		return true
	})
}

// ServeHTTP implements http.Handler.
func (s *PreviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsconn, _, _, err := s.opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to upgrade HTTP: %v", err), http.StatusInternalServerError)
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		wsconn.Close()
		return
	}

	session := newPreviewSession(id.String(), wsconn, s.opts.Logger.With(
		"addr", wsconn.RemoteAddr(),
		"session", id.String()))

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	s.sessions.Store(session, sessionControl{cancel: cancel})
	defer s.sessions.Delete(session)

	session.logger.Info("preview session started")

	if err := session.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		session.logger.Warn(
			"preview session ended with error",
			"error", err)
		return
	}

	session.logger.Info(
		"preview session closed",
		"cause", context.Cause(ctx))
}

// PreviewSession is a single websocket client of a PreviewServer.
type PreviewSession struct {
	id     string
	ws     *websocketServer
	logger *slog.Logger
	frames chan []uint32
}

func newPreviewSession(id string, wsconn io.ReadWriteCloser, logger *slog.Logger) *PreviewSession {
	return &PreviewSession{
		id:     id,
		ws:     newWebsocketServer(wsconn, logger),
		logger: logger,
		frames: make(chan []uint32, 1),
	}
}

// Start runs the session until ctx is done or the client goes away.
func (s *PreviewSession) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		defer cancel()
		return s.ws.Start(ctx)
	})

	errg.Go(func() error {
		s.mainLoop(ctx)
		return nil
	})

	return errg.Wait()
}

func (s *PreviewSession) mainLoop(ctx context.Context) {
	if err := s.ws.Send(ctx, previewMessage{
		Type:    previewHello,
		Session: s.id,
	}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case leds := <-s.frames:
			if err := s.ws.Send(ctx, previewMessage{
				Type: previewFrame,
				LEDs: leds,
			}); err != nil {
				return
			}
		}
	}
}

// queueFrame hands a frame to the session, replacing any frame not yet sent.
func (s *PreviewSession) queueFrame(frame leddraw.LEDStrip) {
	leds := make([]uint32, len(frame))
	for i, led := range frame {
		leds[i] = led.ToUint()
	}

	for {
		select {
		case s.frames <- leds:
			return
		default:
		}

		select {
		case <-s.frames:
		default:
		}
	}
}
