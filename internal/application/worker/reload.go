package worker

import (
	"sync"

	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
)

// LogLevelReloader returns a config.Watch callback that applies log.level
// from each new revision. Every other setting needs a restart.
func LogLevelReloader(logger logging.Logger, initial string) func(*config.Config) {
	var mu sync.Mutex
	current := initial
	return func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		if cfg.Log.Level == current {
			return
		}
		if !logging.SetLevel(logger, cfg.Log.Level) {
			logger.Warn("log level cannot be changed at runtime", logging.String("level", cfg.Log.Level))
			return
		}
		logger.Info("log level changed", logging.String("from", current), logging.String("to", cfg.Log.Level))
		current = cfg.Log.Level
	}
}

//Personal.AI order the ending
