// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultConfigPath string
	version           string
	buildDate         string
	gitCommit         string

	levelMapping = map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
)

type CmdOptions struct {
	Host             string
	Port             int
	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	LogPath          string
	LogLevel         string
	MaxAgeDays       int
}

func init() {
	if defaultConfigPath == "" {
		defaultConfigPath = "/usr/local/etc/harlansw.json"
	}
}

func setupLog(path, level string) {
	lev, ok := levelMapping[level]
	if !ok {
		log.Fatal().Msgf("invalid logging level: %s", level)
	}
	zerolog.SetGlobalLevel(lev)
	if path != "" {
		logf, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal().Msgf("Failed to initialize log. File: %s", path)
		}
		log.Logger = log.Output(logf)

	} else {
		log.Logger = log.Output(
			zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
			},
		)
	}
}

func determineConfigPath(argPos int) string {
	v := flag.Arg(argPos)
	if v != "" {
		return v
	}
	fmt.Fprintf(os.Stderr, "using default config in %s\n", defaultConfigPath)
	return defaultConfigPath
}

func main() {
	cmdOpts := new(CmdOptions)
	flag.StringVar(&cmdOpts.Host, "host", "", "Host to listen on")
	flag.IntVar(&cmdOpts.Port, "port", 0, "Port to listen on")
	flag.IntVar(&cmdOpts.ReadTimeoutSecs, "read-timeout", 0, "Server read timeout in seconds")
	flag.IntVar(&cmdOpts.WriteTimeoutSecs, "write-timeout", 0, "Server write timeout in seconds")
	flag.StringVar(&cmdOpts.LogPath, "log-path", "", "A file to log to (if empty then stderr is used)")
	flag.StringVar(&cmdOpts.LogLevel, "log-level", "", "A log level (debug, info, warn/warning, error)")
	flag.IntVar(&cmdOpts.MaxAgeDays, "max-age-days", 0, "When cleaning old records, this specifies the oldest records (in days) to keep in database.")

	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"harlansw - traffic analytics service for harlanswitzer.com"+
				"\n\nUsage:"+
				"\n\t%s [options] start [conf.json]"+
				"\n\t%s [options] cleanup [conf.json]"+
				"\n\t%s [options] version\n",
			filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]),
		)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("harlansw %s\nbuild date: %s\nlast commit: %s\n",
			version, buildDate, gitCommit)
		return
	case "start":
		conf := findAndLoadConfig(determineConfigPath(1), cmdOpts)
		log.Info().
			Str("version", version).
			Str("buildDate", buildDate).
			Str("last commit", gitCommit).
			Msg("Starting harlansw")
		runService(conf)
	case "cleanup":
		conf := findAndLoadConfig(determineConfigPath(1), cmdOpts)
		runCleanup(conf)
	default:
		fmt.Printf("Unknown action [%s]. Try -h for help\n", flag.Arg(0))
		os.Exit(1)
	}
}
