package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/config"
	"github.com/spf13/viper"
)

func getLogFilePath() (string, error) {
	dir := os.Getenv("AGENTSAY_STATE_DIR")
	if dir == "" {
		dir = viper.GetString("state_dir")
	}
	stateDir, err := config.ResolveStateDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, config.AppName+".log"), nil
}

func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err
	}

	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetPrefix(fmt.Sprintf("pid %d", os.Getpid()))
	log.SetLevel(log.InfoLevel)
	if os.Getenv("AGENTSAY_DEBUG") != "" || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return f.Close, nil
}
