// Package mongoscope provides a dbscope factory over a MongoDB client.
//
// Each scope is one session with an open multi-document transaction. The
// handle is the *mongo.Session; bind it to operation contexts via
// mongo.NewSessionContext. The session always ends, even when abort fails.
package mongoscope

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/MishaVyb/dbscope/dbscope"
)

// Option configures the factory.
type Option func(*factory)

// WithTransactionOptions sets the options applied to every started
// transaction.
func WithTransactionOptions(opts *options.TransactionOptionsBuilder) Option {
	return func(f *factory) { f.txnOptions = opts }
}

type factory struct {
	client     *mongo.Client
	txnOptions *options.TransactionOptionsBuilder
}

// New returns a factory producing one transactional session per scope.
func New(client *mongo.Client, opts ...Option) dbscope.Factory[*mongo.Session] {
	f := &factory{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements dbscope.Factory.
func (f *factory) Name() string { return "mongodb" }

// Open implements dbscope.Factory.
func (f *factory) Open(ctx context.Context) (*mongo.Session, dbscope.Finish, error) {
	sess, err := f.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	var txnErr error
	if f.txnOptions != nil {
		txnErr = sess.StartTransaction(f.txnOptions)
	} else {
		txnErr = sess.StartTransaction()
	}
	if txnErr != nil {
		sess.EndSession(ctx)
		return nil, nil, fmt.Errorf("start transaction: %w", txnErr)
	}

	finish := func(ctx context.Context, failure error) error {
		defer sess.EndSession(ctx)
		if failure != nil {
			if err := sess.AbortTransaction(ctx); err != nil {
				return fmt.Errorf("abort transaction: %w", err)
			}
			return nil
		}
		if err := sess.CommitTransaction(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}
	return sess, finish, nil
}
