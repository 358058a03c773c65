// Package server runs an http.Handler with graceful shutdown.
//
// Run returns a func suitable for errgroup.Group.Go:
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	err = g.Wait()
package server
