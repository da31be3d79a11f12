package dbscope_test

import (
	"context"
	"testing"

	"github.com/MishaVyb/dbscope/dbscope"
)

/*
   Shared helpers (NOT counted in benchmarks)
*/

func newBenchTemplate() *dbscope.Template[*ledger] {
	factory := dbscope.FactoryFunc[*ledger](func(context.Context) (*ledger, dbscope.Finish, error) {
		return &ledger{}, func(context.Context, error) error { return nil }, nil
	})
	return dbscope.New(dbscope.WithFactory[*ledger](factory))
}

/*
   Benchmarks
*/

func BenchmarkRun(b *testing.B) {
	tmpl := newBenchTemplate()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tmpl.Run(ctx, func(context.Context, *ledger) error { return nil })
	}
}

func BenchmarkWrappedCall_Argument(b *testing.B) {
	tmpl := newBenchTemplate()
	ctx := context.Background()
	fn := dbscope.MustWrapAs(tmpl, func(_ context.Context, tx *ledger) error { return nil })

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = fn(ctx, nil)
	}
}

func BenchmarkWrappedCall_ReceiverField(b *testing.B) {
	tmpl := newBenchTemplate()
	ctx := context.Background()
	fn := dbscope.MustWrapAs(tmpl, (*billing).charge)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc := &billing{}
		_ = fn(svc, ctx)
	}
}
