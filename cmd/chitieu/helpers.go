package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"chitieu/internal/amqp"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	"chitieu/internal/log"
	"chitieu/internal/remote"
	"chitieu/internal/services"
)

// loadConfig reads and validates the configuration and sets up logging on
// stderr.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg := config.Load(viper.GetViper())
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// sessionHandle is an open session plus its optional change broker client.
type sessionHandle struct {
	session *services.Session
	changes *amqp.Client
	logger  *log.Logger
}

func (h *sessionHandle) Close() {
	h.session.Close()
	if h.changes != nil {
		if err := h.changes.Close(); err != nil {
			h.logger.Warn("Closing change broker client failed", log.FieldError, err.Error())
		}
	}
}

// openSession connects to the remote store and, when AMQP is configured,
// the change broker used to publish and receive transaction changes.
func openSession(cfg *config.Config, logger *log.Logger) (*sessionHandle, error) {
	if err := cfg.RequireLaunchParameters(); err != nil {
		return nil, err
	}
	rc, err := remote.New(remote.Config{
		APIURL:    cfg.APIURL,
		SheetID:   cfg.SheetID,
		ProxyBase: cfg.ProxyBase,
		Timeout:   cfg.RequestTimeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	opts := services.Options{
		Remote:      rc,
		Logger:      logger,
		PageSize:    cfg.PageSize,
		StaleGuard:  cfg.StaleGuard,
		CategoryTTL: cfg.CategoryCacheTTL,
	}
	h := &sessionHandle{logger: logger}
	if cfg.AMQPURL != "" {
		h.changes, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, fmt.Errorf("connect change broker: %w", err)
		}
		opts.Publisher = h.changes
	}
	h.session = services.NewSession(opts)
	return h, nil
}
