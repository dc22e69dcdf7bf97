package logging

import (
	"go.uber.org/zap"
)

// New builds the console logger used by every command. Debug runs get the
// development config so Debugw lines and caller info show up in the job log.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableStacktrace = true
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
