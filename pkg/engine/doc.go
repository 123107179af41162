// Package engine provides the mock server: request resolution, the serving
// pipeline and the HTTP server that hosts it.
//
// # Request Flow
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  HTTP request  /{project}/{route}[/...]                      │
//	└──────────────────────────────┬───────────────────────────────┘
//	                               ▼
//	   Resolver         method-specific definition, else legacy
//	                               ▼
//	   OPTIONS          200, empty body
//	                               ▼
//	   Status override  status >= 400 with an error message:
//	                    {"error": <message>} and stop
//	                               ▼
//	   _schema=true     {"schema", "total_items"}, never cached
//	                               ▼
//	   Cache lookup     GET and POST only; a hit replays the entry
//	                               ▼
//	   Query            filter → search → sort → paginate → project
//	                               ▼
//	   Render           json | xml | csv
//	                               ▼
//	   Cache write      failures are logged, never returned
//
// The administrative API is mounted under /__mockapi together with a health
// probe and Prometheus metrics.
//
// # Usage
//
//	defs := store.NewEndpointStore(fileStore)
//	p := engine.NewPipeline(defs, engine.WithCache(cache.NewMemoryCache(time.Second)))
//	srv := engine.NewServer(cfg.Server, p, engine.WithAdmin(adminHandler, 600))
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop(context.Background())
package engine
