package dbscope

import (
	"context"
	"errors"
	"reflect"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TargetPolicy decides which injection point wins when a decorated method
// could receive the handle either through an argument or through a receiver
// field.
type TargetPolicy uint8

const (
	// PreferArgument resolves a handle-typed argument first and falls back
	// to the receiver's handle-typed field only when no argument qualifies.
	// This is the default.
	PreferArgument TargetPolicy = iota

	// PreferReceiver resolves the receiver's handle-typed field first and
	// falls back to a handle-typed argument only when the receiver declares
	// none.
	PreferReceiver
)

// Option configures a Template.
type Option[H any] func(*Template[H])

// WithFactory pins the template to an explicit factory, overriding the
// process-wide default for the handle type.
func WithFactory[H any](f Factory[H]) Option[H] {
	return func(t *Template[H]) { t.factory = f }
}

// WithLogger routes the template's diagnostic events to l instead of the
// global zerolog logger.
func WithLogger[H any](l zerolog.Logger) Option[H] {
	return func(t *Template[H]) { t.logger = l }
}

// WithTargetPolicy sets the injection-point precedence used by Wrap.
func WithTargetPolicy[H any](p TargetPolicy) Option[H] {
	return func(t *Template[H]) { t.policy = p }
}

// Template is the immutable configuration for scopes over handle type H.
//
// A template carries no per-call state: every Scope, Run and wrapped call
// produces a fresh Scope from it, so one template is safe to share across
// goroutines and to reuse for unboundedly many calls.
type Template[H any] struct {
	factory Factory[H] // nil means: resolve the process default at Enter
	logger  zerolog.Logger
	policy  TargetPolicy
}

// New constructs a Template. Without WithFactory the process-wide default for
// H is resolved lazily at Enter time.
func New[H any](opts ...Option[H]) *Template[H] {
	t := &Template[H]{logger: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Scope produces a fresh, idle, single-use scope from the template.
func (t *Template[H]) Scope() *Scope[H] {
	return &Scope[H]{tmpl: t}
}

type scopeState uint8

const (
	stateIdle scopeState = iota
	stateEntered
	stateExited
)

// Scope is one unit of work: idle when constructed, entered while the handle
// is live, exited after teardown. A scope may be entered at most once and
// exited at most once; violating that order is a programming error and
// panics. Scopes are not safe for concurrent use — obtain one per call.
type Scope[H any] struct {
	tmpl    *Template[H]
	state   scopeState
	factory Factory[H]
	handle  H
	finish  Finish
	bound   *fieldBinding
}

// fieldBinding records a receiver field holding the live handle so Exit can
// clear it before teardown runs.
type fieldBinding struct {
	recv  reflect.Value // pointer to the receiver struct
	field int
}

func (b *fieldBinding) clear() {
	f := b.recv.Elem().Field(b.field)
	f.Set(reflect.Zero(f.Type()))
}

// Enter acquires the handle. Valid only on an idle scope.
//
// The effective factory is the template's explicit one, else the process-wide
// default for H; with neither, Enter returns ErrNoProvider before anything is
// acquired. On factory failure the scope stays idle and nothing is held.
func (s *Scope[H]) Enter(ctx context.Context) (H, error) {
	var zero H
	switch s.state {
	case stateEntered:
		panic("dbscope: Enter on an already entered scope")
	case stateExited:
		panic("dbscope: Enter on an exited scope; scopes are single use")
	}

	factory := s.tmpl.factory
	if factory == nil {
		var ok bool
		if factory, ok = DefaultFor[H](); !ok {
			return zero, ErrNoProvider
		}
	}

	s.tmpl.logger.Debug().Str("provider", factory.Name()).Msg("entering scope")

	handle, finish, err := factory.Open(ctx)
	if err != nil {
		return zero, err
	}

	s.factory = factory
	s.handle = handle
	s.finish = finish
	s.state = stateEntered
	return handle, nil
}

// Exit finishes the scope. Valid only on an entered scope.
//
// A nil failure commits, a non-nil failure rolls back. Any receiver field
// bound by a wrapped call is cleared first, so the handle is never visible on
// the instance while teardown runs. The returned error reports teardown
// problems only; the caller keeps ownership of the failure it passed in.
func (s *Scope[H]) Exit(ctx context.Context, failure error) error {
	switch s.state {
	case stateIdle:
		panic("dbscope: Exit on a scope that was never entered")
	case stateExited:
		panic("dbscope: Exit on an already exited scope")
	}
	s.state = stateExited

	if s.bound != nil {
		s.bound.clear()
		s.bound = nil
	}

	s.tmpl.logger.Debug().
		Str("provider", s.factory.Name()).
		Bool("rollback", failure != nil).
		Msg("exiting scope")

	var zero H
	finish := s.finish
	s.handle = zero
	s.finish = nil
	return finish(ctx, failure)
}

// Handle returns the live handle of an entered scope.
func (s *Scope[H]) Handle() H {
	if s.state != stateEntered {
		panic("dbscope: Handle on a scope that is not entered")
	}
	return s.handle
}

// Run executes fn inside a fresh scope: commit when fn returns nil, rollback
// when it returns an error or panics (the panic is re-raised after teardown).
//
// When both fn and teardown fail, the returned error wraps both with fn's
// error first, so errors.Is against the body failure keeps working. When only
// the commit fails, that error is returned alone.
func (t *Template[H]) Run(ctx context.Context, fn func(ctx context.Context, handle H) error) error {
	s := t.Scope()
	handle, err := s.Enter(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if s.state == stateEntered {
				_ = s.Exit(ctx, PanicError{Value: r})
			}
			panic(r)
		}
	}()

	bodyErr := fn(ctx, handle)
	finishErr := s.Exit(ctx, bodyErr)
	if bodyErr != nil {
		if finishErr != nil {
			return errors.Join(bodyErr, finishErr)
		}
		return bodyErr
	}
	return finishErr
}
