package trace

import (
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// Span tracks one timed operation.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	scope    Scope
	name     string
	started  time.Time
	extra    map[string]string
}

func wants(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

func (s *Span) event(kind Kind, detail string) *Event {
	return &Event{
		Time:     time.Now(),
		Seq:      globalSeq.Add(1),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		Name:     s.name,
		Detail:   detail,
	}
}

// Begin starts a span and emits its begin event. parent is 0 for roots.
// A disabled tracer or a scope below the tracer's level yields an inert span
// that still measures its duration.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !wants(t, scope) {
		return &Span{tracer: Nop, started: time.Now()}
	}
	s := &Span{tracer: t, id: globalSpans.Add(1), parentID: parent, scope: scope, name: name}
	ev := s.event(KindSpanBegin, "")
	s.started = ev.Time
	t.Emit(ev)
	return s
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	if s.tracer != nil && s.tracer.Enabled() {
		ev := s.event(KindSpanEnd, detail)
		ev.Extra = s.extra
		s.tracer.Emit(ev)
	}
	return dur
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for disabled spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !wants(t, scope) {
		return
	}
	p := &Span{scope: scope, parentID: parent, name: name}
	t.Emit(p.event(KindPoint, detail))
}
