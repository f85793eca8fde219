package event

import (
	"encoding/json"
	"strconv"
)

// defaultVersion is the borrowed-static literal every reset Event starts
// with; the parser overwrites it with the same literal when it recognizes
// "HTTP/1.1" on the wire, so no allocation happens on the common path.
var defaultVersion = Static("HTTP/1.1")

// headerEntry pairs the original-case header name with its value. Header
// lookup is case-insensitive (keyed by the folded name) but responses and
// logs need the name as the caller wrote it, hence storing Key separately
// from the map key that indexes it.
type headerEntry struct {
	Key   StringValue
	Value StringValue
}

type eventResponse struct {
	status    int
	headers   map[string]headerEntry
	body      []byte
	bodyOwned bool
	sent      bool
	finished  bool
}

// Event is the single allocation unit flowing through a worker: one per
// request, acquired from an EventPool and released back to it once the
// response has been written. Every mapping it owns tracks exactly which
// strings it is responsible for freeing on reset — see StringValue.
type Event struct {
	Method  Method
	path    StringValue
	query   StringValue
	version StringValue
	body    []byte

	headers map[string]headerEntry
	params  map[string]StringValue
	context map[string]StringValue

	response eventResponse

	// ownedBytes is a bookkeeping counter, not a real allocator hook: it
	// lets tests and MemoryStats observe that overwriting a mapping entry
	// releases the old value instead of leaking it.
	ownedBytes int64
}

// NewEvent returns a freshly initialized Event, equivalent to one that has
// just been through resetEvent.
func NewEvent() *Event {
	e := &Event{
		headers: make(map[string]headerEntry, 8),
		params:  make(map[string]StringValue, 4),
		context: make(map[string]StringValue, 4),
		response: eventResponse{
			headers: make(map[string]headerEntry, 8),
		},
	}
	e.resetEvent()
	return e
}

// OwnedBytes reports the Event's current bookkeeping total of owned string
// bytes across path/query/body/headers/params/context. It exists for
// testing and telemetry, not for real memory accounting.
func (e *Event) OwnedBytes() int64 {
	return e.ownedBytes
}

func (e *Event) free(v StringValue) {
	if !v.Static {
		e.ownedBytes -= int64(len(v.Data))
	}
}

func (e *Event) own(v StringValue) {
	if !v.Static {
		e.ownedBytes += int64(len(v.Data))
	}
}

// resetEvent clears every mapping and owned field, returning the Event to
// the state NewEvent produces. After it returns, acquiring this Event for
// a new request is indistinguishable from acquiring a fresh one, up to
// map capacity retained for reuse.
func (e *Event) resetEvent() {
	for k, v := range e.context {
		e.free(v)
		delete(e.context, k)
	}
	for k, v := range e.params {
		e.free(v)
		delete(e.params, k)
	}
	for k, entry := range e.headers {
		e.free(entry.Key)
		e.free(entry.Value)
		delete(e.headers, k)
	}
	for k, entry := range e.response.headers {
		e.free(entry.Key)
		e.free(entry.Value)
		delete(e.response.headers, k)
	}

	e.free(e.path)
	e.free(e.query)
	e.free(e.version)
	if e.body != nil {
		e.ownedBytes -= int64(len(e.body))
		e.body = nil
	}
	if e.response.bodyOwned {
		e.ownedBytes -= int64(len(e.response.body))
	}
	e.response.body = nil
	e.response.bodyOwned = false
	e.response.sent = false
	e.response.finished = false
	e.response.status = 200

	e.Method = MethodGET
	e.path = StringValue{}
	e.query = StringValue{}
	e.version = defaultVersion
}

// --- path / query / version / body: set by the wire shell, read by handlers ---

func (e *Event) SetPath(v StringValue) {
	e.free(e.path)
	e.own(v)
	e.path = v
}

func (e *Event) Path() string { return e.path.Data }

func (e *Event) SetQuery(v StringValue) {
	e.free(e.query)
	e.own(v)
	e.query = v
}

func (e *Event) Query() string { return e.query.Data }

func (e *Event) SetVersion(v StringValue) {
	e.free(e.version)
	e.own(v)
	e.version = v
}

func (e *Event) Version() string { return e.version.Data }

func (e *Event) SetBody(b []byte) {
	if e.body != nil {
		e.ownedBytes -= int64(len(e.body))
	}
	if b != nil {
		e.ownedBytes += int64(len(b))
	}
	e.body = b
}

func (e *Event) Body() []byte { return e.body }

// --- headers ---

func (e *Event) setHeaderValue(key, value StringValue) {
	fold := foldKey(key.Data)
	if old, ok := e.headers[fold]; ok {
		e.free(old.Key)
		e.free(old.Value)
	}
	e.own(key)
	e.own(value)
	e.headers[fold] = headerEntry{Key: key, Value: value}
}

// SetHeader sets a request header by name, replacing and freeing any
// existing value for the same (case-insensitively folded) name first.
func (e *Event) SetHeader(name, value string) {
	e.setHeaderValue(Owned(name), Owned(value))
}

// SetHeaderValue is SetHeader with explicit ownership tags on both the
// key and value, for collaborators (the wire parser) that recognize a
// well-known header name and want to store it as Static rather than
// Owned, per parser contract.
func (e *Event) SetHeaderValue(key, value StringValue) {
	e.setHeaderValue(key, value)
}

// GetHeader performs a Unicode-correct case-insensitive lookup.
func (e *Event) GetHeader(name string) (string, bool) {
	entry, ok := e.headers[foldKey(name)]
	if !ok {
		return "", false
	}
	return entry.Value.Data, true
}

func (e *Event) Headers() map[string]string {
	out := make(map[string]string, len(e.headers))
	for _, entry := range e.headers {
		out[entry.Key.Data] = entry.Value.Data
	}
	return out
}

// --- params (route captures) ---

func (e *Event) setParamValue(name string, value StringValue) {
	if old, ok := e.params[name]; ok {
		e.free(old)
	}
	e.own(value)
	e.params[name] = value
}

func (e *Event) SetParam(name, value string) {
	e.setParamValue(name, Owned(value))
}

func (e *Event) GetParam(name string) (string, bool) {
	v, ok := e.params[name]
	return v.Data, ok
}

// --- context (middleware/handler scratch) ---

func (e *Event) setContextValue(name string, value StringValue) {
	if old, ok := e.context[name]; ok {
		e.free(old)
	}
	e.own(value)
	e.context[name] = value
}

func (e *Event) SetContext(name, value string) {
	e.setContextValue(name, Owned(value))
}

func (e *Event) GetContext(name string) (string, bool) {
	v, ok := e.context[name]
	return v.Data, ok
}

// SetContextInt64 is a convenience used by the Timing middleware to stash
// a nanosecond timestamp without every caller hand-rolling strconv calls.
func (e *Event) SetContextInt64(name string, value int64) {
	e.SetContext(name, strconv.FormatInt(value, 10))
}

func (e *Event) GetContextInt64(name string) (int64, bool) {
	s, ok := e.GetContext(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// --- response ---

func (e *Event) SetStatus(code int) {
	e.response.status = code
}

func (e *Event) Status() int { return e.response.status }

func (e *Event) SetResponseHeader(name, value string) {
	fold := foldKey(name)
	if old, ok := e.response.headers[fold]; ok {
		e.free(old.Key)
		e.free(old.Value)
	}
	key, val := Owned(name), Owned(value)
	e.own(key)
	e.own(val)
	e.response.headers[fold] = headerEntry{Key: key, Value: val}
}

func (e *Event) GetResponseHeader(name string) (string, bool) {
	entry, ok := e.response.headers[foldKey(name)]
	if !ok {
		return "", false
	}
	return entry.Value.Data, true
}

func (e *Event) ResponseHeaders() map[string]string {
	out := make(map[string]string, len(e.response.headers))
	for _, entry := range e.response.headers {
		out[entry.Key.Data] = entry.Value.Data
	}
	return out
}

func (e *Event) ResponseBody() []byte { return e.response.body }

// Finished reports whether a Send* call has set the response ready for
// serialization.
func (e *Event) Finished() bool { return e.response.finished }

// Sent reports whether the serializer has already written this response
// to the connection.
func (e *Event) Sent() bool { return e.response.sent }

// MarkSent is called by the serializer once the response bytes have been
// written to the socket. Further Send* calls become errors.
func (e *Event) MarkSent() { e.response.sent = true }

func (e *Event) setResponseBody(body []byte, owned bool) {
	if e.response.bodyOwned {
		e.ownedBytes -= int64(len(e.response.body))
	}
	if owned {
		e.ownedBytes += int64(len(body))
	}
	e.response.body = body
	e.response.bodyOwned = owned
}

func (e *Event) finish(status int, contentType string, body []byte, owned bool) error {
	if e.response.sent {
		return ErrAlreadySent
	}
	e.response.status = status
	e.SetResponseHeader("Content-Type", contentType)
	e.setResponseBody(body, owned)
	e.response.finished = true
	return nil
}

// SendText writes a text/plain response.
func (e *Event) SendText(status int, text string) error {
	return e.finish(status, "text/plain; charset=utf-8", []byte(text), true)
}

// SendHTML writes a text/html response.
func (e *Event) SendHTML(status int, html string) error {
	return e.finish(status, "text/html; charset=utf-8", []byte(html), true)
}

// SendJSON marshals v and writes it as application/json.
func (e *Event) SendJSON(status int, v any) error {
	if e.response.sent {
		return ErrAlreadySent
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.finish(status, "application/json", data, true)
}

// SendBytes writes raw bytes with a caller-chosen content type. owned
// indicates whether this Event should account for (and, in a richer
// allocator, free) the slice on reset; callers handing over a buffer
// they will reuse elsewhere should pass owned=false.
func (e *Event) SendBytes(status int, contentType string, data []byte, owned bool) error {
	return e.finish(status, contentType, data, owned)
}
