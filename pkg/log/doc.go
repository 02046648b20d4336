// Package log provides the structured logging abstraction used by logzship.
//
// Components log through the Logger interface so that embedders can route
// shipper output into their own logging stack. A zerolog adapter and a
// no-op logger are provided.
//
//	logger, err := log.NewConsoleLogger(os.Stderr, "info")
//	if err != nil {
//	    return err
//	}
//	logger.Info("dispatched batch", log.Int("messages", 42))
package log
