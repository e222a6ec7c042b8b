// Package main runs the ceremony coordinator: the long-running daemon that
// collects participant commitments, drives the sequential pubkey/stage2/
// stage3 rounds over the network, records every accepted or rejected turn
// to the transcript, and publishes the assembled keypair once the ceremony
// completes. Structural descendant of teacher's cmd/auctiond/main.go: same
// config-load, logger-build, metrics/health-server-start, then run
// sequence, generalized from the one-shot N=10 auction scenario to a
// long-running network daemon.
package main

import (
	"errors"
	"flag"
	"net/http"
	"os"

	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
	"github.com/hamzazf/ceremony/internal/ceremonyconfig"
	"github.com/hamzazf/ceremony/internal/ceremonyhealth"
	"github.com/hamzazf/ceremony/internal/ceremonylog"
	"github.com/hamzazf/ceremony/internal/ceremonymetrics"

	"github.com/hamzazf/ceremony/internal/ceremony/coordinator"
)

var errNotStarted = errors.New("coordinator: transport server not started")

// demoCircuitDepth/Variables/Inputs size the self-test constraint system a
// coordinator run uses when no external circuit loader is wired in
// (building and loading real R1CS circuits is outside this ceremony's
// scope); mirrors the teacher's habit of a fixed in-main demo scenario
// size (cmd/auctiond/main.go's N=10).
const (
	demoCircuitDepth     = 8
	demoCircuitVariables = 16
	demoCircuitInputs    = 3
)

func main() {
	configPath := flag.String("config", "coordinator.json", "path to the coordinator's JSON configuration")
	metricsAddr := flag.String("metrics-addr", ":9100", "address the Prometheus metrics and health endpoints listen on")
	flag.Parse()

	cfg, err := ceremonyconfig.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := ceremonylog.New(cfg.LogLevel, cfg.LogFile, auditPath(cfg))
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	metrics := ceremonymetrics.New()
	health := ceremonyhealth.NewChecker("ceremony-coordinator")

	transcriptFile, err := os.Create(cfg.TranscriptPath)
	if err != nil {
		logger.Fatal("creating transcript file: %v", err)
		return
	}
	defer transcriptFile.Close()
	health.Register("transcript", func() error { return nil })

	cs, err := qap.NewDummyConstraintSystem(demoCircuitDepth, demoCircuitVariables, demoCircuitInputs, qap.RootOfUnity(demoCircuitDepth))
	if err != nil {
		logger.Fatal("building constraint system: %v", err)
		return
	}

	co, err := coordinator.New(cfg, cs, transcriptFile)
	if err != nil {
		logger.Fatal("starting coordinator: %v", err)
		return
	}

	d := newDaemon(co, logger, metrics, health, cfg.Workers)

	server := transport.NewServer(cfg.ListenAddress)
	d.register(server)
	listening := false
	health.Register("transport", func() error {
		if !listening {
			return errNotStarted
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := health.Check()
		if report.OverallStatus != ceremonyhealth.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		w.Write([]byte(report.OverallStatus))
	})
	go http.ListenAndServe(*metricsAddr, mux)

	ready := make(chan struct{})
	if err := server.Start(ready); err != nil {
		logger.Fatal("starting transport server: %v", err)
		return
	}
	<-ready
	listening = true
	logger.Info("coordinator listening on %s, waiting for %d participants", cfg.ListenAddress, cfg.NumPlayers)

	d.Wait()

	assembled, ok := co.AssembledKeypair()
	if !ok {
		logger.Error("ceremony ended without an assembled keypair")
		return
	}
	if err := writeKeypair(cfg.KeyOutputPath, assembled); err != nil {
		logger.Error("writing assembled keypair: %v", err)
		return
	}
	logger.Info("ceremony complete, keypair written to %s", cfg.KeyOutputPath)
}

func auditPath(cfg *ceremonyconfig.Config) string {
	if !cfg.EnableAudit {
		return ""
	}
	return cfg.AuditLogPath
}

func writeKeypair(path string, kp *qap.AssembledKeypair) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := wire.NewWriter(f)
	kp.Encode(w)
	return w.Err()
}
