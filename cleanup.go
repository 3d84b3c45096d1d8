// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package main

import (
	"encoding/json"

	"github.com/hdiggity/harlanswitzer.com/config"
	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/rs/zerolog/log"
)

func runCleanup(conf *config.Configuration) {
	log.Info().Msg("running cleanup procedure")
	db, err := storage.NewMySQLAdapter(&conf.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open the log store")
	}
	ans := db.CleanOldData(conf.CleanupMaxAgeDays)
	if ans.Error != nil {
		log.Fatal().Err(ans.Error).Msg("failed to cleanup old records")
	}
	status, err := json.Marshal(ans)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to provide cleanup summary")
	}
	log.Info().Msgf("finished old data cleanup: %s", string(status))
}
