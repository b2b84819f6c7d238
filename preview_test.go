package lumed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/neilotoole/slogt"
)

func TestPreviewSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, conn := startTestSession(t, ctx)

	assertMessage(t, conn, previewMessage{
		Type:    previewHello,
		Session: "test-session",
	})

	frame := leddraw.LEDStrip{{R: 0x12, G: 0x34, B: 0x56}, {}}
	session.queueFrame(frame)
	assertMessage(t, conn, previewMessage{
		Type: previewFrame,
		LEDs: []uint32{frame[0].ToUint(), frame[1].ToUint()},
	})
}

func TestPreviewSessionClientClose(t *testing.T) {
	conn1, conn2 := net.Pipe()
	t.Cleanup(func() {
		conn1.Close()
		conn2.Close()
	})

	session := newPreviewSession("test-session", conn1, slogt.New(t))

	errCh := make(chan error, 1)
	go func() { errCh <- session.Start(context.Background()) }()

	assertMessage(t, conn2, previewMessage{
		Type:    previewHello,
		Session: "test-session",
	})

	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")
	if err := wsutil.WriteClientMessage(conn2, ws.OpClose, body); err != nil {
		t.Fatal("cannot send close frame:", err)
	}

	frame, err := ws.ReadFrame(conn2)
	if err != nil {
		t.Fatal("cannot read close reply:", err)
	}
	assertEq(t, ws.OpClose, frame.Header.OpCode)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatal("session ended with error:", err)
		}
	case <-time.After(time.Second):
		t.Fatal("session still running after the client closed")
	}
}

func TestPreviewSessionKicked(t *testing.T) {
	conn1, conn2 := net.Pipe()
	t.Cleanup(func() {
		conn1.Close()
		conn2.Close()
	})

	session := newPreviewSession("test-session", conn1, slogt.New(t))

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	errCh := make(chan error, 1)
	go func() { errCh <- session.Start(ctx) }()

	assertMessage(t, conn2, previewMessage{
		Type:    previewHello,
		Session: "test-session",
	})

	cancel(errors.New("kicked: maintenance"))

	frame, err := ws.ReadFrame(conn2)
	if err != nil {
		t.Fatal("cannot read close frame:", err)
	}
	assertEq(t, ws.OpClose, frame.Header.OpCode)

	code, reason := ws.ParseCloseFrameData(frame.Payload)
	assertEq(t, ws.StatusGoingAway, code)
	assertEq(t, "kicked: maintenance", reason)

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatal("unexpected session error:", err)
	}
}

func TestPreviewSessionLatestFrameWins(t *testing.T) {
	session := newPreviewSession("test", nil, slogt.New(t))

	session.queueFrame(leddraw.LEDStrip{{R: 1}})
	session.queueFrame(leddraw.LEDStrip{{R: 2}})

	assertEq(t, []uint32{xcolor.RGB{R: 2}.ToUint()}, <-session.frames)
	select {
	case leds := <-session.frames:
		t.Fatal("unexpected stale frame", leds)
	default:
	}
}

func TestMirrorStrip(t *testing.T) {
	strip := newFakeStrip(3)
	sink := &recordingSink{}
	mirror := NewMirrorStrip(strip, 3, sink)

	mirror.Fill(xcolor.RGB{B: 9})
	mirror.SetPixel(1, xcolor.RGB{R: 1})
	mirror.SetPixel(7, xcolor.RGB{R: 7})
	if err := mirror.Flush(); err != nil {
		t.Fatal("cannot flush:", err)
	}

	want := leddraw.LEDStrip{{B: 9}, {R: 1}, {B: 9}}
	assertEq(t, []leddraw.LEDStrip{want}, sink.frames)
	assertEq(t, want, strip.LastFrame())
	assertEq(t, want, mirror.LEDs())
}

func TestMirrorStripSetLength(t *testing.T) {
	strip := newFakeStrip(4)
	sink := &recordingSink{}
	mirror := NewMirrorStrip(strip, 4, sink)

	mirror.SetLength(2)
	mirror.Fill(xcolor.RGB{R: 3})
	if err := mirror.Flush(); err != nil {
		t.Fatal("cannot flush:", err)
	}

	mirror.SetLength(9)
	if err := mirror.Flush(); err != nil {
		t.Fatal("cannot flush:", err)
	}

	assertEq(t, []leddraw.LEDStrip{
		solidFrame(2, xcolor.RGB{R: 3}),
		solidFrame(4, xcolor.RGB{R: 3}),
	}, sink.frames)

	// The hardware always gets every LED.
	assertEq(t, solidFrame(4, xcolor.RGB{R: 3}), strip.LastFrame())
}

type recordingSink struct {
	frames []leddraw.LEDStrip
}

func (s *recordingSink) PublishFrame(frame leddraw.LEDStrip) {
	s.frames = append(s.frames, append(leddraw.LEDStrip(nil), frame...))
}

func readServerMessage(t *testing.T, conn io.ReadWriteCloser) previewMessage {
	t.Helper()

	b, err := wsutil.ReadServerText(conn)
	if err != nil {
		t.Fatal("error reading server message:", err)
	}

	var msg previewMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatal("invalid server message:", err)
	}

	return msg
}

func assertMessage(t *testing.T, conn io.ReadWriteCloser, expect previewMessage) {
	t.Helper()

	actual := readServerMessage(t, conn)
	assertEq(t, expect, actual)
}

func startTestSession(t *testing.T, ctx context.Context) (*PreviewSession, io.ReadWriteCloser) {
	t.Helper()

	conn1, conn2 := net.Pipe()

	t.Cleanup(func() {
		t.Log("closing test session pipes")
		conn1.Close()
		conn2.Close()
	})

	session := newPreviewSession("test-session", conn1, slogt.New(t))

	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Error("preview session error:", err)
		}
	})

	go func() {
		errCh <- session.Start(ctx)
	}()

	return session, conn2
}
