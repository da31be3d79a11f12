package dbscope

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tx struct{}

type holder struct {
	Tx *tx
}

type bare struct {
	n int
}

// TestResolveTarget covers the signature-level resolution table: argument
// first by default, receiver fallback, and the failure shapes.
func TestResolveTarget(t *testing.T) {
	t.Parallel()

	handle := reflect.TypeOf((**tx)(nil)).Elem()

	cases := []struct {
		name   string
		fn     any
		policy TargetPolicy

		wantKind  targetKind
		wantArg   int
		wantField string
		wantErr   error
	}{
		{
			name:     "single argument",
			fn:       func(ctx context.Context, n int, h *tx) error { return nil },
			wantKind: targetArgument,
			wantArg:  2,
		},
		{
			name:     "argument wins over receiver by default",
			fn:       func(s *holder, h *tx) error { return nil },
			wantKind: targetArgument,
			wantArg:  1,
		},
		{
			name:      "receiver wins under PreferReceiver",
			fn:        func(s *holder, h *tx) error { return nil },
			policy:    PreferReceiver,
			wantKind:  targetReceiverField,
			wantField: "Tx",
		},
		{
			name:      "receiver fallback without argument",
			fn:        func(s *holder, ctx context.Context) error { return nil },
			wantKind:  targetReceiverField,
			wantField: "Tx",
		},
		{
			name:    "no target at all",
			fn:      func(ctx context.Context, n int) error { return nil },
			wantErr: AnnotationError{},
		},
		{
			name:    "receiver without handle field",
			fn:      func(s *bare) error { return nil },
			wantErr: AnnotationError{},
		},
		{
			name:    "two arguments",
			fn:      func(a, b *tx) error { return nil },
			wantErr: AnnotationError{},
		},
		{
			name: "context arguments are never candidates",
			fn: func(ctx context.Context, other context.Context) error {
				return nil
			},
			wantErr: AnnotationError{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveTarget(reflect.TypeOf(tc.fn), handle, tc.policy)
			if tc.wantErr != nil {
				require.Error(t, err)
				var ann AnnotationError
				assert.ErrorAs(t, err, &ann)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, got.kind)
			if tc.wantKind == targetArgument {
				assert.Equal(t, tc.wantArg, got.arg)
			} else {
				assert.Equal(t, tc.wantField, got.fieldName)
			}
		})
	}
}

// TestResolveTarget_HandleTypedReceiver verifies a first argument of the
// handle type itself resolves as an argument, not as a receiver.
func TestResolveTarget_HandleTypedReceiver(t *testing.T) {
	t.Parallel()

	type session struct {
		Self *session
	}
	handle := reflect.TypeOf((**session)(nil)).Elem()

	got, err := resolveTarget(reflect.TypeOf(func(s *session) error { return nil }), handle, PreferArgument)
	require.NoError(t, err)
	assert.Equal(t, targetArgument, got.kind)
	assert.Equal(t, 0, got.arg)
}

// TestCheckCall_ArgumentZeroValueRequired verifies the direct-injection
// guard.
func TestCheckCall_ArgumentZeroValueRequired(t *testing.T) {
	t.Parallel()

	tgt := injectionTarget{kind: targetArgument, arg: 0}

	err := checkCall("func(*tx) error", tgt, []reflect.Value{reflect.ValueOf(&tx{})})
	var direct DirectInjectionError
	require.ErrorAs(t, err, &direct)
	assert.Equal(t, 0, direct.Position)

	err = checkCall("func(*tx) error", tgt, []reflect.Value{reflect.Zero(reflect.TypeOf((*tx)(nil)))})
	assert.NoError(t, err)
}

// TestCheckCall_ReceiverGuards verifies the nil-receiver and reentrancy
// guards.
func TestCheckCall_ReceiverGuards(t *testing.T) {
	t.Parallel()

	tgt := injectionTarget{kind: targetReceiverField, field: 0, fieldName: "Tx", recvType: "dbscope.holder"}

	err := checkCall("", tgt, []reflect.Value{reflect.Zero(reflect.TypeOf((*holder)(nil)))})
	assert.ErrorIs(t, err, ErrNilReceiver)

	err = checkCall("", tgt, []reflect.Value{reflect.ValueOf(&holder{Tx: &tx{}})})
	var conflict BindingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Tx", conflict.Field)

	err = checkCall("", tgt, []reflect.Value{reflect.ValueOf(&holder{})})
	assert.NoError(t, err)
}
