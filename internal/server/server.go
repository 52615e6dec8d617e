package server

import (
	"context"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/server/core"
)

type Server = core.Server

func NewServer(cfg *config.ServerConfig, logger *logging.Logger) (*core.Server, error) {
	return core.NewServer(cfg, logger)
}

// Run starts a server, calls onStart once it is listening, and stops it
// when ctx is done.
func Run(ctx context.Context, cfg *config.ServerConfig, logger *logging.Logger, onStart func(*Server)) error {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	if onStart != nil {
		onStart(srv)
	}
	<-ctx.Done()
	return srv.Stop()
}
