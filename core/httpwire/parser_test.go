package httpwire

import (
	"testing"

	"github.com/latticehttp/corekit/core/event"
)

func TestParseIntoSimpleGET(t *testing.T) {
	e := event.NewEvent()
	raw := "GET /widgets?color=red HTTP/1.1\r\nHost: example.com\r\nUser-Agent: test\r\n\r\n"

	consumed, complete, err := ParseInto(e, []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !complete {
		t.Fatalf("expected a complete request")
	}
	if consumed != len(raw) {
		t.Fatalf("expected to consume %d bytes, got %d", len(raw), consumed)
	}
	if e.Method != event.MethodGET {
		t.Fatalf("expected GET, got %v", e.Method)
	}
	if e.Path() != "/widgets" {
		t.Fatalf("expected path /widgets, got %q", e.Path())
	}
	if e.Query() != "color=red" {
		t.Fatalf("expected query color=red, got %q", e.Query())
	}
	if e.Version() != "HTTP/1.1" {
		t.Fatalf("expected HTTP/1.1, got %q", e.Version())
	}
	if host, ok := e.GetHeader("Host"); !ok || host != "example.com" {
		t.Fatalf("expected Host header example.com, got %q ok=%v", host, ok)
	}
}

func TestParseIntoWithBody(t *testing.T) {
	e := event.NewEvent()
	body := `{"id":1}`
	raw := "POST /items HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: " +
		itoa(len(body)) + "\r\n\r\n" + body

	consumed, complete, err := ParseInto(e, []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !complete {
		t.Fatalf("expected a complete request")
	}
	if consumed != len(raw) {
		t.Fatalf("expected to consume %d bytes, got %d", len(raw), consumed)
	}
	if string(e.Body()) != body {
		t.Fatalf("expected body %q, got %q", body, e.Body())
	}
}

func TestParseIntoIncompletePartialLine(t *testing.T) {
	e := event.NewEvent()
	_, complete, err := ParseInto(e, []byte("GET /widg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if complete {
		t.Fatalf("a request with no line terminator must not be complete")
	}
}

func TestParseIntoIncompleteAwaitingBody(t *testing.T) {
	e := event.NewEvent()
	raw := "POST /items HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"
	_, complete, err := ParseInto(e, []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if complete {
		t.Fatalf("a request whose body hasn't fully arrived must not be complete")
	}
}

func TestParseIntoMalformedRequestLine(t *testing.T) {
	e := event.NewEvent()
	_, complete, err := ParseInto(e, []byte("GET\r\n\r\n"))
	if !complete {
		t.Fatalf("a malformed but fully buffered line should be reported complete so the caller can reject it")
	}
	if err != event.ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestParseIntoWellKnownHeaderStoredStatic(t *testing.T) {
	e := event.NewEvent()
	raw := "GET / HTTP/1.1\r\ncontent-type: text/plain\r\n\r\n"
	if _, complete, err := ParseInto(e, []byte(raw)); err != nil || !complete {
		t.Fatalf("parse failed: complete=%v err=%v", complete, err)
	}
	if ct, ok := e.GetHeader("Content-Type"); !ok || ct != "text/plain" {
		t.Fatalf("expected Content-Type text/plain, got %q ok=%v", ct, ok)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
