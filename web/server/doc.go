// Package server runs the HTTP listener until its context ends or the
// process receives SIGINT/SIGTERM, then drains in-flight requests and
// releases external resources such as the cache connection.
//
//	srv := server.New(app,
//		server.WithHost(":3000"),
//		server.WithShutdownFunc(func(context.Context) error {
//			return rdb.Close()
//		}),
//	)
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
