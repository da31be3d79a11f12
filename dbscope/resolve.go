package dbscope

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type targetKind uint8

const (
	// targetArgument injects into a handle-typed argument of the function.
	targetArgument targetKind = iota

	// targetReceiverField injects into the single handle-typed field of the
	// struct pointed to by the function's first argument (a method
	// expression receiver).
	targetReceiverField
)

// injectionTarget is the resolved destination for the handle of one call.
type injectionTarget struct {
	kind      targetKind
	arg       int    // argument index; 0 (the receiver) for field targets
	field     int    // field index within the receiver struct
	fieldName string // for conflict reporting
	recvType  string
}

// resolveTarget inspects a function signature for exactly one injection point
// of the handle type.
//
// Candidates are the function's handle-typed arguments (context.Context
// arguments are never candidates) and, when the first argument is a pointer
// to struct, that struct's handle-typed fields. The policy decides which
// group is consulted first; within a group, zero usable candidates falls
// through to the other group and more than one is an AnnotationError. All of
// this is signature-level, so Wrap reports it at decoration time, before any
// call and before any acquisition.
func resolveTarget(fn reflect.Type, handle reflect.Type, policy TargetPolicy) (injectionTarget, error) {
	if policy == PreferReceiver {
		if tgt, found, err := receiverTarget(fn, handle); err != nil || found {
			return tgt, err
		}
		return argumentTarget(fn, handle)
	}

	tgt, found, err := argumentTargetScan(fn, handle)
	if err != nil || found {
		return tgt, err
	}
	if tgt, found, err := receiverTarget(fn, handle); err != nil || found {
		return tgt, err
	}
	return injectionTarget{}, AnnotationError{Target: fn.String(), Count: 0}
}

// argumentTargetScan finds the single handle-typed argument. It reports
// found=false without error when there are none, so the caller may fall back
// to the receiver.
func argumentTargetScan(fn reflect.Type, handle reflect.Type) (injectionTarget, bool, error) {
	var idx []int
	for i := 0; i < fn.NumIn(); i++ {
		in := fn.In(i)
		if in == contextType {
			continue
		}
		if in == handle {
			idx = append(idx, i)
		}
	}
	switch len(idx) {
	case 0:
		return injectionTarget{}, false, nil
	case 1:
		return injectionTarget{kind: targetArgument, arg: idx[0]}, true, nil
	default:
		return injectionTarget{}, false, AnnotationError{Target: fn.String(), Count: len(idx)}
	}
}

// argumentTarget is argumentTargetScan with "none found" promoted to an
// AnnotationError, for when there is no further fallback.
func argumentTarget(fn reflect.Type, handle reflect.Type) (injectionTarget, error) {
	tgt, found, err := argumentTargetScan(fn, handle)
	if err != nil {
		return injectionTarget{}, err
	}
	if !found {
		return injectionTarget{}, AnnotationError{Target: fn.String(), Count: 0}
	}
	return tgt, nil
}

// receiverTarget finds the single handle-typed field on the struct behind the
// function's first argument. found=false without error means the signature
// has no receiver-shaped first argument, or the struct declares no
// handle-typed field at all.
func receiverTarget(fn reflect.Type, handle reflect.Type) (injectionTarget, bool, error) {
	if fn.NumIn() == 0 {
		return injectionTarget{}, false, nil
	}
	recv := fn.In(0)
	if recv.Kind() != reflect.Pointer || recv.Elem().Kind() != reflect.Struct || recv == handle {
		return injectionTarget{}, false, nil
	}

	elem := recv.Elem()
	var idx []int
	for i := 0; i < elem.NumField(); i++ {
		if elem.Field(i).Type == handle {
			idx = append(idx, i)
		}
	}
	switch len(idx) {
	case 0:
		return injectionTarget{}, false, nil
	case 1:
		field := elem.Field(idx[0])
		if field.PkgPath != "" {
			// The one declared target exists but reflection cannot set it.
			return injectionTarget{}, false, UnsupportedTargetError{Receiver: elem.String(), Field: field.Name}
		}
		return injectionTarget{
			kind:      targetReceiverField,
			arg:       0,
			field:     idx[0],
			fieldName: field.Name,
			recvType:  elem.String(),
		}, true, nil
	default:
		return injectionTarget{}, false, AnnotationError{Target: elem.String(), Count: len(idx)}
	}
}

// checkCall runs the pre-acquisition guards for one invocation: the caller
// must not supply the handle directly, and a receiver field must not already
// hold one from an enclosing scope.
func checkCall(fnType string, tgt injectionTarget, args []reflect.Value) error {
	switch tgt.kind {
	case targetArgument:
		if !args[tgt.arg].IsZero() {
			return DirectInjectionError{Target: fnType, Position: tgt.arg}
		}
	case targetReceiverField:
		recv := args[0]
		if recv.IsNil() {
			return ErrNilReceiver
		}
		if !recv.Elem().Field(tgt.field).IsZero() {
			return BindingConflictError{Receiver: tgt.recvType, Field: tgt.fieldName}
		}
	}
	return nil
}
