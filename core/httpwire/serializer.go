package httpwire

import "github.com/latticehttp/corekit/core/event"

// Serialize renders e's finished response as HTTP/1.1 wire bytes into
// buf[:0], returning the grown slice. It assembles status line, then
// headers, then body, reading from Event.Response* rather than
// switching on a content-type-specific method per call.
func Serialize(buf []byte, e *event.Event) []byte {
	buf = buf[:0]

	buf = append(buf, "HTTP/1.1 "...)
	buf = appendInt(buf, e.Status())
	buf = append(buf, ' ')
	buf = append(buf, statusText(e.Status())...)
	buf = append(buf, "\r\n"...)

	body := e.ResponseBody()
	hasContentLength := false
	for name, value := range e.ResponseHeaders() {
		buf = append(buf, name...)
		buf = append(buf, ':', ' ')
		buf = append(buf, value...)
		buf = append(buf, "\r\n"...)
		if foldASCII(name) == "content-length" {
			hasContentLength = true
		}
	}
	if !hasContentLength {
		buf = append(buf, "Content-Length: "...)
		buf = appendInt(buf, len(body))
		buf = append(buf, "\r\n"...)
	}
	buf = append(buf, "\r\n"...)
	buf = append(buf, body...)

	return buf
}

func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}
	if i < 0 {
		b = append(b, '-')
		i = -i
	}
	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}
	for n > 0 {
		n--
		b = append(b, digits[n])
	}
	return b
}

func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}
