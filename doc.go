// Package logzship ships build log lines to a Logz.io listener.
//
// Log lines arrive as envelope documents, JSON objects whose "message" array
// holds the lines and whose other keys describe the build. Each line becomes
// one record carrying the envelope's keys, and records are batched and posted
// to the listener once the batch grows past the configured size, with a final
// flush at the end of every envelope.
//
// # Basic Usage
//
//	cfg := logzship.DefaultConfig()
//	cfg.Token = logzship.NewSecret("your-logzio-token")
//
//	client, err := logzship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Push(ctx, []byte(`{"message":["LINE 1"],"source":"jenkins"}`))
//
// # Building Envelopes
//
// [BuildPayload] creates the envelope for a build: the lines, the source
// host, the build timestamp and the build metadata flattened into top-level
// keys. [Client.Ship] builds and pushes in one call.
//
// # Errors
//
// [New] fails with an error matching [ErrInvalidConfig] when the endpoint,
// token or type is unusable. Push fails with [ErrInvalidEnvelope] for a
// malformed document and with [ErrServer] when a dispatch fails; a failed
// batch is dropped, not retried on the next push.
//
// # Dependency Injection
//
// The HTTP client, logger, status reporter and metrics registry can be
// replaced through [Option] values:
//
//	client, err := logzship.New(cfg,
//	    logzship.WithLogger(myLogger),
//	    logzship.WithMetrics(prometheus.DefaultRegisterer),
//	)
package logzship
