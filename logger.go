/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initLogger builds the process-wide logger and installs it as zap's global.
// --verbose always lowers the level to debug.
func initLogger(cfg *Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logDate)
	zcfg.DisableStacktrace = true

	switch strings.ToLower(cfg.logLevel) {
	case "debug":
		zcfg.Level.SetLevel(zap.DebugLevel)
	case "warn":
		zcfg.Level.SetLevel(zap.WarnLevel)
	case "error":
		zcfg.Level.SetLevel(zap.ErrorLevel)
	default:
		zcfg.Level.SetLevel(zap.InfoLevel)
	}

	if cfg.verbose {
		zcfg.Level.SetLevel(zap.DebugLevel)
	}

	lgr, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	zap.ReplaceGlobals(lgr)

	return lgr, nil
}
