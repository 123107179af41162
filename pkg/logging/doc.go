// Package logging configures the structured loggers used across mockapi.
//
// It wraps log/slog. The serve command builds one root logger with Open and
// hands each subsystem a child tagged by For:
//
//	log, closeLog, err := logging.Open("debug", "json", os.Stderr, "mockapi.log")
//	if err != nil {
//	    return err
//	}
//	defer closeLog()
//	logging.For(log, logging.ComponentPipeline).Info("mock served", "project", "shop")
//
// Components accept a *slog.Logger through an option or setter and fall back
// to Nop() when none is given. A log file receives a JSON copy of every
// record through MultiHandler.
package logging
