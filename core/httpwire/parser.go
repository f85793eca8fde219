// Package httpwire is the byte-level HTTP/1.1 wire shell: a request
// parser and response serializer, plus the single-threaded-per-
// connection acceptor loop that drives them. The line/header scanning
// (a two-space split on the request line, zero-allocation where the
// line allows it) and the status-line/header/body assembly both write
// straight into an *event.Event rather than building an intermediate
// request struct first.
package httpwire

import (
	"bytes"

	"github.com/latticehttp/corekit/core/event"
)

// wellKnownHeaders lists the header names the parser recognizes as
// program literals. A request carrying exactly one of these names
// (any case) has its key stored as Static, borrowed rather than owned,
// since the canonical spelling always outlives the Event. Anything
// else is Owned, so an arbitrary caller-supplied header name never
// masquerades as static and never gets mis-freed.
var wellKnownHeaders = map[string]string{
	"content-type":   "Content-Type",
	"content-length": "Content-Length",
	"user-agent":     "User-Agent",
	"accept":         "Accept",
	"host":           "Host",
	"connection":     "Connection",
}

var httpVersion11 = event.Static("HTTP/1.1")
var httpVersion10 = event.Static("HTTP/1.0")

// ParseInto parses one HTTP/1.1 request out of data and writes its
// fields directly onto e. It returns the number of bytes consumed, or
// (0, false) if data does not yet contain a complete request — the
// caller should wait for more bytes rather than treat that as
// ErrInvalidRequest. A request line without two spaces or with an
// unknown method is reported as complete with ErrInvalidRequest. A
// missing header terminator is only ever reported as incomplete; it is
// the caller that rejects a buffer which has reached its size cap
// without one, instead of waiting forever.
func ParseInto(e *event.Event, data []byte) (consumed int, complete bool, err error) {
	lineEnd := bytes.IndexByte(data, '\n')
	if lineEnd == -1 {
		return 0, false, nil
	}
	line := data[:lineEnd]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return 0, true, event.ErrInvalidRequest
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 == -1 {
		return 0, true, event.ErrInvalidRequest
	}
	sp2 += sp1 + 1

	methodStr := string(line[:sp1])
	rawPath := string(line[sp1+1 : sp2])
	versionStr := string(line[sp2+1:])

	method, ok := event.ParseMethod(methodStr)
	if !ok {
		return 0, true, event.ErrInvalidRequest
	}
	e.Method = method

	if idx := indexByte(rawPath, '?'); idx != -1 {
		e.SetPath(event.Owned(rawPath[:idx]))
		e.SetQuery(event.Owned(rawPath[idx+1:]))
	} else {
		e.SetPath(event.Owned(rawPath))
	}

	switch versionStr {
	case "HTTP/1.1":
		e.SetVersion(httpVersion11)
	case "HTTP/1.0":
		e.SetVersion(httpVersion10)
	default:
		e.SetVersion(event.Owned(versionStr))
	}

	rest := data[lineEnd+1:]
	headerEnd := bytes.Index(rest, []byte("\r\n\r\n"))
	sepLen := 4
	if headerEnd == -1 {
		headerEnd = bytes.Index(rest, []byte("\n\n"))
		sepLen = 2
		if headerEnd == -1 {
			return 0, false, nil
		}
	}
	parseHeaders(e, rest[:headerEnd])
	bodyStart := lineEnd + 1 + headerEnd + sepLen

	contentLength := 0
	if cl, ok := e.GetHeader("Content-Length"); ok {
		contentLength = atoiSafe(cl)
	}

	if len(data)-bodyStart < contentLength {
		return 0, false, nil
	}

	if contentLength > 0 {
		body := make([]byte, contentLength)
		copy(body, data[bodyStart:bodyStart+contentLength])
		e.SetBody(body)
	}

	return bodyStart + contentLength, true, nil
}

func parseHeaders(e *event.Event, data []byte) {
	for len(data) > 0 {
		lineEnd := bytes.IndexByte(data, '\n')
		if lineEnd == -1 {
			lineEnd = len(data)
		}
		line := data[:lineEnd]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			break
		}

		colon := bytes.IndexByte(line, ':')
		if colon > 0 {
			rawName := string(bytes.TrimSpace(line[:colon]))
			value := string(bytes.TrimSpace(line[colon+1:]))
			setParsedHeader(e, rawName, value)
		}

		if lineEnd >= len(data) {
			break
		}
		data = data[lineEnd+1:]
	}
}

// setParsedHeader is the one place the parser decides Owned vs Static
// for a header key, per wellKnownHeaders above — everything else about
// header storage goes through Event.SetHeader's normal overwrite-frees
// contract.
func setParsedHeader(e *event.Event, rawName, value string) {
	canonical, known := wellKnownHeaders[foldASCII(rawName)]
	if known {
		e.SetHeaderValue(event.Static(canonical), event.Owned(value))
		return
	}
	e.SetHeader(rawName, value)
}

func foldASCII(s string) string {
	buf := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf[i] = c
	}
	return string(buf)
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
