// Package pg connects to PostgreSQL with pgx, applies the embedded goose
// migrations and exposes a readiness check.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// WithTx and TxFromContext carry a pgx.Tx through a context so repositories
// can join the caller's transaction.
package pg
