package event

import "golang.org/x/text/cases"

// foldCaser performs Unicode-correct case folding for header name lookups.
// Using cases.Fold instead of strings.ToLower/EqualFold avoids the
// allowlist-and-length heuristic that the original framework used to tell
// static literals apart from heap strings (see StringValue below) leaking
// into header comparison too.
var foldCaser = cases.Fold()

// StringValue is a string paired with an explicit ownership tag.
//
// Static values point at program literals (e.g. "Content-Type") and are
// never freed by resetEvent. Owned values were allocated for this Event
// (by the parser, a handler, or a Set* call) and must be cleared on reset
// so the byte slice backing them can be collected. There is no heuristic
// here: every StringValue knows what it is at construction time.
type StringValue struct {
	Data   string
	Static bool
}

// Owned wraps a heap string that this Event is responsible for releasing.
func Owned(s string) StringValue {
	return StringValue{Data: s, Static: false}
}

// Static wraps a program literal that must never be treated as a leak.
func Static(s string) StringValue {
	return StringValue{Data: s, Static: true}
}

func foldKey(name string) string {
	return foldCaser.String(name)
}
