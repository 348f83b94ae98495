package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiatjaf/rpcpipe/common"
	"github.com/kr/pretty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stderr).Output(zerolog.ConsoleWriter{Out: os.Stderr})
var config *common.Config

func main() {
	var verbose bool
	config = &common.Config{}

	// find datadir
	flag.StringVar(&config.DataDir, "datadir", "~/.rpcpipe", "the base directory we will use to read your config file from and store data into.")
	flag.BoolVar(&verbose, "verbose", false, "log every request.")
	flag.Parse()
	config.DataDir, _ = homedir.Expand(config.DataDir)

	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	// read config file
	if err := config.ReadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to read config")
	}
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	pretty.Log(config)

	// initiate database
	store, err := openStore(config)
	if err != nil {
		log.Fatal().Err(err).Str("store", config.Store).Msg("failed to open database")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// listen for rpc commands
	// this will also block here
	if err := listenRPC(ctx, store); err != nil {
		log.Error().Err(err).Msg("error serving http")
	}
}

func listenRPC(ctx context.Context, store Store) error {
	srv := &http.Server{
		Addr:              config.RPCAddr,
		Handler:           newHandler(config, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", config.RPCAddr).Str("store", config.Store).Msg("listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
