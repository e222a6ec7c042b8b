// Package main runs one participant's contribution to a ceremony: dial
// the coordinator, submit a commitment, then answer whichever stage
// requests arrive until the coordinator signals acceptance, rejection, or
// the connection times out. Structural descendant of teacher's
// cmd/auctiond/main.go's per-participant registration loop, reduced to a
// single participant per process since each ceremony player runs its own
// binary rather than the auction demo's in-process N=10 loop.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/participant"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremonyconfig"
	"github.com/hamzazf/ceremony/internal/ceremonylog"
)

func main() {
	configPath := flag.String("config", "participant.json", "path to this participant's JSON configuration")
	flag.Parse()

	cfg, err := ceremonyconfig.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := ceremonylog.New(cfg.LogLevel, cfg.LogFile, "")
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	workers := cfg.Workers
	if workers < 1 {
		workers = parallel.DefaultWorkers()
	}

	p, err := participant.New(workers)
	if err != nil {
		logger.Fatal("sampling keypair: %v", err)
		return
	}

	dialTimeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}

	logger.Info("dialing coordinator at %s", cfg.CoordinatorAddress)
	conn, err := transport.DialWithBackoff(context.Background(), cfg.CoordinatorAddress, dialTimeout, 5)
	if err != nil {
		logger.Fatal("dialing coordinator: %v", err)
		return
	}
	defer conn.Close()

	if err := p.Run(conn); err != nil {
		logger.Error("ceremony round failed: %v", err)
		return
	}
	p.Zeroize()
	logger.Info("contribution accepted, private key zeroized")
}
