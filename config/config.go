// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hdiggity/harlanswitzer.com/collect"
	"github.com/hdiggity/harlanswitzer.com/reporting"
	"github.com/hdiggity/harlanswitzer.com/reqlog"
	"github.com/hdiggity/harlanswitzer.com/session"
	"github.com/hdiggity/harlanswitzer.com/storage"
	"github.com/hdiggity/harlanswitzer.com/traffic"

	"github.com/rs/zerolog/log"
)

const (
	DfltServerReadTimeoutSecs  = 10
	DfltServerWriteTimeoutSecs = 30
	DfltServerPort             = 8080
	DfltServerHost             = "localhost"
	DfltCleanupMaxAgeDays      = 90
	DfltTimeZone               = "America/New_York"
)

type Configuration struct {
	ServerHost             string         `json:"serverHost"`
	ServerPort             int            `json:"serverPort"`
	ServerReadTimeoutSecs  int            `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int            `json:"serverWriteTimeoutSecs"`
	TimeZone               string         `json:"timeZone"`
	LogPath                string         `json:"logPath"`
	LogLevel               string         `json:"logLevel"`
	CleanupMaxAgeDays      int            `json:"cleanupMaxAgeDays"`
	Storage                storage.Conf   `json:"storage"`
	Traffic                traffic.Conf   `json:"traffic"`
	ReqLog                 reqlog.Conf    `json:"reqLog"`
	Collect                collect.Conf   `json:"collect"`
	Sessions               session.Conf   `json:"sessions"`
	Reporting              reporting.Conf `json:"reporting"`
}

func (c *Configuration) Validate() error {
	var err error
	if err = c.Storage.Validate("storage"); err != nil {
		return err
	}
	if err = c.Traffic.Validate("traffic"); err != nil {
		return err
	}
	if err = c.ReqLog.Validate("reqLog"); err != nil {
		return err
	}
	if err = c.Collect.Validate("collect"); err != nil {
		return err
	}
	if err = c.Sessions.Validate("sessions"); err != nil {
		return err
	}
	if err = c.Reporting.Validate("reporting"); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return err
	}
	return nil
}

func (c *Configuration) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call c.Validate()
	// first (which also tries to load the location and report possible
	// error)
	loc, _ := time.LoadLocation(c.TimeZone)
	return loc
}

func LoadConfig(path string) *Configuration {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Configuration
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}
