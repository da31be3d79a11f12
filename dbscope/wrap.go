package dbscope

import (
	"context"
	"errors"
	"reflect"
)

// Wrap decorates fn with a transactional scope.
//
// The returned function has fn's exact signature. On each call it recreates a
// fresh Scope from the template, enters it, injects the live handle into the
// resolved injection point, invokes fn, and exits the scope with fn's
// trailing error (or the panic) as the failure signal. The handle argument
// must be passed as its zero value by callers; a receiver field is set
// strictly after Enter succeeds and cleared strictly before teardown runs.
//
// Signature problems (not a function, no trailing error result, zero or
// several injection points, an unsettable target field) are reported here, at
// decoration time. Per-call guards — DirectInjectionError for an explicitly
// supplied handle and BindingConflictError for a reentrant call on one
// receiver — surface through the wrapped function's error result, before any
// acquisition.
func (t *Template[H]) Wrap(fn any) (any, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, ErrNotAFunction
	}
	ft := fv.Type()
	if ft.NumOut() == 0 || ft.Out(ft.NumOut()-1) != errorType {
		return nil, ErrNoErrorResult
	}

	tgt, err := resolveTarget(ft, handleType[H](), t.policy)
	if err != nil {
		return nil, err
	}

	wrapped := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		return t.scopedCall(fv, ft, tgt, args)
	})
	return wrapped.Interface(), nil
}

// MustWrap is Wrap panicking on decoration errors. Useful for package-level
// wrapped variables where a bad signature should fail at init.
func (t *Template[H]) MustWrap(fn any) any {
	wrapped, err := t.Wrap(fn)
	if err != nil {
		panic(err)
	}
	return wrapped
}

// WrapAs decorates fn preserving its static type.
func WrapAs[F any, H any](t *Template[H], fn F) (F, error) {
	wrapped, err := t.Wrap(fn)
	if err != nil {
		var zero F
		return zero, err
	}
	return wrapped.(F), nil
}

// MustWrapAs is WrapAs panicking on decoration errors.
func MustWrapAs[F any, H any](t *Template[H], fn F) F {
	wrapped, err := WrapAs(t, fn)
	if err != nil {
		panic(err)
	}
	return wrapped
}

// scopedCall runs one decorated invocation: guards, enter, inject, call,
// exit. The ordering invariant is that the scope is fully torn down, and any
// receiver binding cleared, before results (or a panic) reach the caller.
func (t *Template[H]) scopedCall(fv reflect.Value, ft reflect.Type, tgt injectionTarget, args []reflect.Value) []reflect.Value {
	if err := checkCall(ft.String(), tgt, args); err != nil {
		return failResults(ft, err)
	}

	ctx := callContext(ft, args)
	s := t.Scope()
	handle, err := s.Enter(ctx)
	if err != nil {
		return failResults(ft, err)
	}

	// Addressable value with static type H; works for nil interface handles.
	hv := reflect.ValueOf(&handle).Elem()
	switch tgt.kind {
	case targetArgument:
		args[tgt.arg] = hv
	case targetReceiverField:
		args[0].Elem().Field(tgt.field).Set(hv)
		s.bound = &fieldBinding{recv: args[0], field: tgt.field}
	}

	var out []reflect.Value
	func() {
		defer func() {
			if r := recover(); r != nil {
				if s.state == stateEntered {
					_ = s.Exit(ctx, PanicError{Value: r})
				}
				panic(r)
			}
		}()
		if ft.IsVariadic() {
			out = fv.CallSlice(args)
		} else {
			out = fv.Call(args)
		}
	}()

	last := len(out) - 1
	bodyErr, _ := out[last].Interface().(error)
	finishErr := s.Exit(ctx, bodyErr)
	switch {
	case bodyErr != nil && finishErr != nil:
		out[last] = errValue(errors.Join(bodyErr, finishErr))
	case bodyErr == nil && finishErr != nil:
		out[last] = errValue(finishErr)
	}
	return out
}

// callContext picks the first context.Context argument, defaulting to
// context.Background for signatures (or calls) without one.
func callContext(ft reflect.Type, args []reflect.Value) context.Context {
	for i := 0; i < ft.NumIn(); i++ {
		if ft.In(i) != contextType {
			continue
		}
		if ctx, ok := args[i].Interface().(context.Context); ok && ctx != nil {
			return ctx
		}
		break
	}
	return context.Background()
}

// failResults builds a zeroed result set carrying err in the trailing error
// slot.
func failResults(ft reflect.Type, err error) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	for i := range out {
		out[i] = reflect.Zero(ft.Out(i))
	}
	out[len(out)-1] = errValue(err)
	return out
}

// errValue returns a reflect.Value of static type error holding err.
func errValue(err error) reflect.Value {
	v := reflect.New(errorType).Elem()
	if err != nil {
		v.Set(reflect.ValueOf(err))
	}
	return v
}
