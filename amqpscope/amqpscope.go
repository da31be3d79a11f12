// Package amqpscope provides a dbscope factory over an AMQP connection.
//
// Each scope is one channel in transactional mode: publishes and acks queued
// on the channel take effect on commit and are dropped on rollback. The
// channel is closed when the scope exits, whatever the outcome.
package amqpscope

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MishaVyb/dbscope/dbscope"
)

type factory struct {
	conn *amqp.Connection
}

// New returns a factory producing one transactional channel per scope.
func New(conn *amqp.Connection) dbscope.Factory[*amqp.Channel] {
	return &factory{conn: conn}
}

// Name implements dbscope.Factory.
func (f *factory) Name() string { return "rabbitmq" }

// Open implements dbscope.Factory.
func (f *factory) Open(_ context.Context) (*amqp.Channel, dbscope.Finish, error) {
	ch, err := f.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Tx(); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("select transaction mode: %w", err)
	}

	finish := func(_ context.Context, failure error) error {
		var err error
		if failure != nil {
			if rbErr := ch.TxRollback(); rbErr != nil {
				err = fmt.Errorf("rollback channel transaction: %w", rbErr)
			}
		} else {
			if cmErr := ch.TxCommit(); cmErr != nil {
				err = fmt.Errorf("commit channel transaction: %w", cmErr)
			}
		}
		if closeErr := ch.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close channel: %w", closeErr)
		}
		return err
	}
	return ch, finish, nil
}
