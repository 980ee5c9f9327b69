package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
)

type sent struct {
	msg      *mail.Msg
	deadline time.Time
}

func newTestSMTP(t *testing.T, capture *sent, err error) *SMTPNotifier {
	t.Helper()
	n, nerr := NewSMTPNotifier(SMTPConfig{
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@flightwx.local",
		Timeout: 5 * time.Second,
	})
	if nerr != nil {
		t.Fatalf("NewSMTPNotifier failed: %v", nerr)
	}
	n.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }
	n.send = func(ctx context.Context, msg *mail.Msg) error {
		capture.msg = msg
		capture.deadline, _ = ctx.Deadline()
		return err
	}
	return n
}

func TestSMTPNotifier_Send(t *testing.T) {
	var got sent
	n := newTestSMTP(t, &got, nil)

	err := n.Send(context.Background(), Message{
		To:      []string{"sam@example.com", "jo@example.com"},
		Subject: "Flight Cancelled - Weather Conditions Unsafe",
		HTML:    "<p>Hi Sam</p>",
		Text:    "Hi Sam",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.msg == nil {
		t.Fatal("expected a message to be sent")
	}

	var raw bytes.Buffer
	if _, err := got.msg.WriteTo(&raw); err != nil {
		t.Fatalf("failed to render message: %v", err)
	}
	msg, err := netmail.ReadMessage(&raw)
	if err != nil {
		t.Fatalf("message does not parse: %v", err)
	}
	if from := msg.Header.Get("From"); !strings.Contains(from, "noreply@flightwx.local") {
		t.Errorf("got from %q", from)
	}
	to, err := msg.Header.AddressList("To")
	if err != nil || len(to) != 2 {
		t.Errorf("got recipients %v (%v), want 2", to, err)
	}
	if subject, _ := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject")); subject != "Flight Cancelled - Weather Conditions Unsafe" {
		t.Errorf("got subject %q", subject)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/alternative" {
		t.Fatalf("got content type %q (%v), want multipart/alternative", mediaType, err)
	}

	bodies := map[string]string{}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		b, _ := io.ReadAll(part)
		ct, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		bodies[ct] = strings.TrimSpace(string(b))
	}

	if bodies["text/plain"] != "Hi Sam" {
		t.Errorf("got text part %q, want %q", bodies["text/plain"], "Hi Sam")
	}
	if bodies["text/html"] != "<p>Hi Sam</p>" {
		t.Errorf("got html part %q", bodies["text/html"])
	}
}

func TestSMTPNotifier_BoundsDelivery(t *testing.T) {
	var got sent
	n := newTestSMTP(t, &got, nil)

	before := time.Now()
	if err := n.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.deadline.IsZero() {
		t.Fatal("expected delivery to run under a deadline")
	}
	if limit := before.Add(5 * time.Second); got.deadline.After(limit.Add(time.Second)) {
		t.Errorf("got deadline %v, want no later than %v", got.deadline, limit)
	}

	// A tighter caller deadline wins.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	want, _ := ctx.Deadline()
	if err := n.Send(ctx, Message{To: []string{"a@example.com"}, Subject: "x"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !got.deadline.Equal(want) {
		t.Errorf("got deadline %v, want caller deadline %v", got.deadline, want)
	}
}

func TestSMTPNotifier_StalledRelayTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Accept connections and never send the SMTP greeting.
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	n, err := NewSMTPNotifier(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    addr.Port,
		From:    "noreply@flightwx.local",
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSMTPNotifier failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- n.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x", Text: "x"})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error from a relay that never greets")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Send did not return for a stalled relay")
	}
}

func TestSMTPNotifier_Errors(t *testing.T) {
	var got sent
	n := newTestSMTP(t, &got, errors.New("connection refused"))

	if err := n.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Error("expected error with no recipients")
	}

	if err := n.Send(context.Background(), Message{To: []string{"not an address"}, Subject: "x"}); err == nil {
		t.Error("expected error for an invalid recipient")
	}

	err := n.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected relay error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, Message{To: []string{"a@example.com"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNewSMTPNotifier_InvalidPort(t *testing.T) {
	if _, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 70000}); err == nil {
		t.Error("expected error for an out-of-range port")
	}
}

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := n.Send(context.Background(), Message{To: []string{"sam@example.com"}, Subject: "hello"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"subject":"hello"`) {
		t.Errorf("expected subject in log output, got %s", buf.String())
	}
}
