// Ethereum Validator Watcher - Go Implementation
//
// Copyright (c) 2023 Kiln - Original Python/C++ implementation
// Copyright (c) 2025 Enrique Manuel Valenzuela - Go refactor
//
// Licensed under the MIT License. See LICENSE file for details.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/config"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/orchestrator"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// repeatableFlag collects every occurrence of a flag passed more than
// once on the command line, e.g. multiple --relay-url.
type repeatableFlag []string

func (f *repeatableFlag) String() string { return fmt.Sprintf("%v", []string(*f)) }
func (f *repeatableFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

var (
	configPath  = flag.String("config", "", "Path to a YAML configuration file to bootstrap from")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion = flag.Bool("version", false, "Show version information")

	network          = flag.String("network", "", "Network name, e.g. mainnet or holesky")
	beaconURL        = flag.String("beacon-url", "", "Beacon node base URL")
	executionURL     = flag.String("execution-url", "", "Execution node base URL, required to resolve fee recipients from block hash")
	beaconType       = flag.String("beacon-type", "", "Beacon node implementation, affects liveness and a few other endpoint quirks")
	pubkeysFilePath  = flag.String("pubkeys-file-path", "", "Path to a file of one watched validator pubkey per line")
	labelsFilePath   = flag.String("labels-file-path", "", "Path to a CSV file mapping watched pubkeys to labels")
	removeFirstLabel = flag.Bool("remove-first-label", false, "Drop the first label column, keeping it out of the metric schema")
	web3signerURL    = flag.String("web3signer-url", "", "Web3Signer base URL to source additional watched pubkeys from")
	slackChannel     = flag.String("slack-channel", "", "Slack channel to post exit, withdrawal and slashing alerts to")
	livenessFile     = flag.String("liveness-file", "", "Path to a heartbeat file touched once per processed slot")
	metricsPort      = flag.Int("metrics-port", 0, "Port to serve Prometheus metrics on")

	feeRecipients repeatableFlag
	relayURLs     repeatableFlag
)

func main() {
	flag.Var(&feeRecipients, "fee-recipient", "Allow-listed fee recipient address (repeatable)")
	flag.Var(&relayURLs, "relay-url", "MEV relay base URL to verify registrations and bids against (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("eth-validator-watcher version %s (Go)\n", version)
		os.Exit(0)
	}

	logger := setupLogger(*logLevel)

	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	logger.WithFields(logrus.Fields{
		"version":       version,
		"network":       cfg.Network,
		"beacon_url":    cfg.BeaconURL,
		"metrics_port":  cfg.MetricsPort,
		"relay_count":   len(cfg.RelayURLs),
		"watched_file":  cfg.PubkeysFilePath,
	}).Info("starting Ethereum validator watcher")

	o := orchestrator.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig).Info("received shutdown signal")
		cancel()
	}()

	if err := o.Run(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("validator watcher exited with an error")
	}

	logger.Info("shutdown complete")
}

// loadConfig starts from defaults, layers a --config YAML bootstrap
// file when given, then applies any CLI flags the operator actually
// set on top — a flag always wins over the file, which always wins
// over the built-in default.
func loadConfig() (*models.Config, error) {
	var cfg *models.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	applyFlagOverrides(cfg)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *models.Config) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["network"] {
		cfg.Network = *network
	}
	if set["beacon-url"] {
		cfg.BeaconURL = *beaconURL
	}
	if set["execution-url"] {
		cfg.ExecutionURL = *executionURL
	}
	if set["beacon-type"] {
		cfg.BeaconType = models.BeaconType(*beaconType)
	}
	if set["pubkeys-file-path"] {
		cfg.PubkeysFilePath = *pubkeysFilePath
	}
	if set["labels-file-path"] {
		cfg.LabelsFilePath = *labelsFilePath
	}
	if set["remove-first-label"] {
		cfg.RemoveFirstLabel = *removeFirstLabel
	}
	if set["web3signer-url"] {
		cfg.Web3SignerURL = *web3signerURL
	}
	if set["slack-channel"] {
		cfg.SlackChannel = *slackChannel
	}
	if set["liveness-file"] {
		cfg.LivenessFile = *livenessFile
	}
	if set["metrics-port"] {
		cfg.MetricsPort = *metricsPort
	}
	if len(feeRecipients) > 0 {
		cfg.FeeRecipients = feeRecipients
	}
	if len(relayURLs) > 0 {
		cfg.RelayURLs = relayURLs
	}

	if token := os.Getenv("SLACK_TOKEN"); token != "" {
		cfg.SlackToken = token
	}
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warn("invalid log level, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}
