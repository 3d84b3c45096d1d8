// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hdiggity/harlanswitzer.com/analytics"
	"github.com/hdiggity/harlanswitzer.com/collect"
	"github.com/hdiggity/harlanswitzer.com/config"
	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/reporting"
	"github.com/hdiggity/harlanswitzer.com/reqlog"
	"github.com/hdiggity/harlanswitzer.com/session"
	"github.com/hdiggity/harlanswitzer.com/storage"
	"github.com/hdiggity/harlanswitzer.com/traffic"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func createReportingWriter(ctx context.Context, conf *config.Configuration) reporting.ReportingWriter {
	if !conf.Reporting.IsConfigured() {
		log.Warn().Msg("reporting database not configured, operational reports go to the log only")
		return &reporting.NullWriter{}
	}
	pool, err := pgxpool.New(ctx, conf.Reporting.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to the reporting database")
	}
	writer := reporting.NewReportingWriter(pool, conf.TimezoneLocation(), ctx)
	writer.AddTableWriter(reporting.ClassificationOpsTable)
	writer.AddTableWriter(reporting.IngestOpsTable)
	writer.LogErrors()
	return writer
}

func runService(conf *config.Configuration) {
	syscallChan := make(chan os.Signal, 1)
	signal.Notify(syscallChan, os.Interrupt)
	signal.Notify(syscallChan, syscall.SIGTERM)
	signal.Notify(syscallChan, syscall.SIGINT)
	exitEvent := make(chan os.Signal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.NewMySQLAdapter(&conf.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open the log store")
	}
	log.Info().
		Str("host", conf.Storage.Host).
		Str("name", conf.Storage.Database).
		Str("user", conf.Storage.User).
		Msg("Connected to the log store database")

	analyzer, err := traffic.NewAnalyzer(&conf.Traffic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize the traffic analyzer")
	}
	if conf.Traffic.TokenDefsPath != "" {
		if err := analyzer.Tokens().GoWatch(ctx, conf.Traffic.TokenDefsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to watch token definitions")
		}
		log.Info().
			Str("path", conf.Traffic.TokenDefsPath).
			Msg("watching token definitions for changes")
	}

	reportingWriter := createReportingWriter(ctx, conf)
	instr, promRegistry := metrics.New()

	verifier := session.NewVerifier(&conf.Sessions)

	logWriter := reqlog.NewLogWriter(&conf.ReqLog, db, instr)
	logWriter.GoRun(ctx)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(reqlog.Middleware(&conf.ReqLog, logWriter))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	collectActions := collect.NewActions(
		&conf.Collect, &conf.ReqLog, db, reportingWriter, instr)
	engine.POST("/collect", collectActions.HandleCollect)

	trafficActions := analytics.NewActions(db, analyzer, reportingWriter, instr)
	adminAPI := engine.Group("/admin/api")
	adminAPI.Use(uniresp.AlwaysJSONContentType())
	adminAPI.Use(session.RequireAdmin(verifier))
	adminAPI.GET("/traffic", trafficActions.HandleTraffic)

	engine.GET("/metrics", metrics.Handler(promRegistry))

	go func() {
		for evt := range syscallChan {
			log.Warn().Str("signalName", evt.String()).Msg("received OS signal")
			if evt == syscall.SIGTERM || evt == syscall.SIGINT {
				exitEvent <- evt
			}
		}
		close(exitEvent)
	}()

	log.Info().Msgf("starting to listen at %s:%d", conf.ServerHost, conf.ServerPort)

	srv := &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", conf.ServerHost, conf.ServerPort),
		WriteTimeout: time.Duration(conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(conf.ServerReadTimeoutSecs) * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			log.Error().Err(err).Msg("")
		}
		syscallChan <- syscall.SIGTERM
	}()

	<-exitEvent
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown request error")
	}
	cancel()
}
