package dbscope_test

import (
	"context"

	"github.com/MishaVyb/dbscope/dbscope"
	"github.com/rs/zerolog"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// ledger is the fake resource handle used across the suite. Each Open hands
// out a distinct instance so tests can assert handles are never reused.
type ledger struct {
	id int
}

// fakeFactory is a counting Factory[*ledger]. It records every lifecycle
// transition so tests can assert the exactly-once contract: commit XOR
// rollback, close always.
type fakeFactory struct {
	opens     int
	commits   int
	rollbacks int
	closes    int

	// lastFailure is the failure value most recently forwarded to Finish.
	lastFailure error

	// handles are the instances produced so far, in order.
	handles []*ledger

	// fault injection
	openErr     error
	commitErr   error
	rollbackErr error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{}
}

func (f *fakeFactory) Name() string { return "fake" }

func (f *fakeFactory) Open(_ context.Context) (*ledger, dbscope.Finish, error) {
	if f.openErr != nil {
		return nil, nil, f.openErr
	}
	f.opens++
	h := &ledger{id: f.opens}
	f.handles = append(f.handles, h)

	finish := func(_ context.Context, failure error) error {
		f.lastFailure = failure
		var err error
		if failure != nil {
			f.rollbacks++
			err = f.rollbackErr
		} else {
			f.commits++
			err = f.commitErr
		}
		f.closes++
		return err
	}
	return h, finish, nil
}

// newTemplate builds a template pinned to a fresh counting factory, with
// diagnostics silenced.
func newTemplate() (*dbscope.Template[*ledger], *fakeFactory) {
	f := newFakeFactory()
	tmpl := dbscope.New(
		dbscope.WithFactory[*ledger](f),
		dbscope.WithLogger[*ledger](zerolog.Nop()),
	)
	return tmpl, f
}
