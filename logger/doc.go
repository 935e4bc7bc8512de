// Package logger provides structured logging on top of zerolog.
//
// Loggers are created from a Config, tagged with a service name and
// scoped per component:
//
//	log := logger.New(&cfg, "flapsctl").WithComponent("flaps")
//	log.Debug("request sent", logger.Fields("machine_id", id))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
package logger
