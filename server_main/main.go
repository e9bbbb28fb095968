// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stalcup-dev/riverboat-tournament/server"
	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
	"github.com/stalcup-dev/riverboat-tournament/server/matchmaker"
	"github.com/stalcup-dev/riverboat-tournament/server/world"
	"github.com/stalcup-dev/riverboat-tournament/server_main/cloud"
	"golang.org/x/net/netutil"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "http service port")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "http service host")
	flag.IntVar(&cfg.MaxConnections, "max-connections", cfg.MaxConnections, "maximum number of inbound TCP connections")
	flag.StringVar(&cfg.CatchLog, "catch-log", cfg.CatchLog, "CSV file to append catches to")
	flag.BoolVar(&cfg.Cloud, "cloud", cfg.Cloud, "register with AWS and archive results")
	flag.Parse()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	w, err := world.DefaultMap()
	if err != nil {
		log.Fatalf("[FATAL] World: %v", err)
	}
	pack, err := fishing.DefaultPack()
	if err != nil {
		log.Fatalf("[FATAL] Fishing data: %v", err)
	}
	if err := pack.CheckZones(w); err != nil {
		log.Fatalf("[FATAL] Fishing data: %v", err)
	}

	var c server.Cloud = server.Offline{}
	if cfg.Cloud {
		if deployed, err := cloud.New(); err != nil {
			// Cloud is not required for server to function, just log an error
			log.Printf("[WARN] Cloud error: %v", err)
		} else {
			c = deployed
		}
	}

	dir := server.NewDirectory(server.DirectoryOptions{
		World:     w,
		Pack:      pack,
		Registry:  matchmaker.NewRegistry(cfg.CodeTTL),
		RoomCodes: matchmaker.NewRoomCodes(cfg.CodeTTL),
		Cloud:     c,
		CatchLog:  cfg.CatchLog,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dir.Serve(ctx, cfg.CodeSweep)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(ctx, cfg, dir),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	l, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatalf("[FATAL] Listen: %v", err)
	}
	l = netutil.LimitListener(l, cfg.MaxConnections)

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Printf("[INFO] Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] HTTP server Shutdown: %v", err)
		}
		if err := dir.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Rooms did not stop: %v", err)
		}
		cancel()
		close(idleConnsClosed)
	}()

	log.Printf("[INFO] riverboat server v%s listening on %s env=%s cloud=%s ws=%s", cfg.Version, srv.Addr, cfg.Env, c, cfg.PublicWSURL)

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[FATAL] Serve: %v", err)
	}

	<-idleConnsClosed
	log.Printf("[INFO] Server shutdown complete")
}
