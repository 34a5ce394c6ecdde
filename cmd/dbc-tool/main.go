// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command dbc-tool is the full toolkit CLI: diffing two DBC sources
// (optionally pulled from the archive, cached, notified over NATS and
// signed), running the metrics/diff HTTP server, and running the
// periodic re-diff scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/ClusterCockpit/cc-dbc/internal/archive"
	"github.com/ClusterCockpit/cc-dbc/internal/cache"
	"github.com/ClusterCockpit/cc-dbc/internal/config"
	"github.com/ClusterCockpit/cc-dbc/internal/diffpolicy"
	"github.com/ClusterCockpit/cc-dbc/internal/metricsserver"
	"github.com/ClusterCockpit/cc-dbc/internal/notify"
	"github.com/ClusterCockpit/cc-dbc/internal/scheduler"
	"github.com/ClusterCockpit/cc-dbc/internal/signing"
	"github.com/ClusterCockpit/cc-dbc/pkg/dbc"
	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

var (
	flagConfigFile  string
	flagGops        bool
	flagLogLevel    string
	flagLogDateTime bool
)

func registerGlobalFlags(fs *flag.FlagSet) {
	fs.StringVar(&flagConfigFile, "config", "./cc-dbc.json", "Path to the program configuration file")
	fs.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	fs.StringVar(&flagLogLevel, "loglevel", "info", "Logging level: debug, info, notice, warn, err, crit")
	fs.BoolVar(&flagLogDateTime, "logdate", false, "Add date and time to log messages")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "diff":
		runDiff(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "schedule":
		runSchedule(os.Args[2:])
	case "keygen":
		fmt.Fprintln(os.Stderr, "use the separate dbc-keygen binary")
		os.Exit(2)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <diff|serve|schedule> [flags]\n", os.Args[0])
}

func setup() {
	log.SetLogLevel(flagLogLevel)
	log.SetLogDateTime(flagLogDateTime)
	if err := config.Init(flagConfigFile); err != nil {
		log.Fatalf("config: %v", err)
	}
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}
}

// runDiff implements "dbc-tool diff <left> <right>": parses both
// sources (from the local filesystem, or from the configured archive
// when -archive is given), applies the configured attribute-exclusion
// policy to bus-level attributes (node, message and signal attributes
// are not filtered), records the result in the cache, optionally signs
// it and optionally publishes it over NATS.
func runDiff(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	registerGlobalFlags(fs)
	useArchive := fs.Bool("archive", false, "Pull left/right by name from the configured S3 archive instead of the local filesystem")
	sign := fs.Bool("sign", false, "Sign the diff report with the key pair in DBC_REPORT_PUBLIC_KEY/DBC_REPORT_PRIVATE_KEY")
	publish := fs.Bool("notify", false, "Publish the diff result on the configured NATS server")
	fs.Parse(args)
	setup()

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: dbc-tool diff [flags] <left> <right>")
		os.Exit(2)
	}
	leftPath, rightPath := rest[0], rest[1]

	ctx := context.Background()
	leftText, rightText, err := fetchSources(ctx, leftPath, rightPath, *useArchive)
	if err != nil {
		log.Fatalf("diff: %v", err)
	}

	leftBus, err := dbc.Parse(leftText)
	if err != nil {
		log.Fatalf("diff: parse %s: %v", leftPath, err)
	}
	rightBus, err := dbc.Parse(rightText)
	if err != nil {
		log.Fatalf("diff: parse %s: %v", rightPath, err)
	}

	if config.Keys.DiffPolicy != "" {
		policy, err := diffpolicy.Compile(config.Keys.DiffPolicy)
		if err != nil {
			log.Fatalf("diff: %v", err)
		}
		filtered, err := diffpolicy.FilterAttributes(policy, leftBus.Attributes)
		if err != nil {
			log.Fatalf("diff: %v", err)
		}
		leftBus.Attributes = filtered
		filtered, err = diffpolicy.FilterAttributes(policy, rightBus.Attributes)
		if err != nil {
			log.Fatalf("diff: %v", err)
		}
		rightBus.Attributes = filtered
	}

	difference := leftBus.Diff(rightBus)
	fmt.Print(difference)

	if config.Keys.CacheDB != "" {
		c, err := cache.Open(config.Keys.CacheDB)
		if err != nil {
			log.Errorf("diff: open cache: %v", err)
		} else {
			defer c.Close()
			if err := c.RecordDiffResult(ctx, cache.DiffResult{
				LeftPath: leftPath, RightPath: rightPath,
				Difference: difference, DiffedAt: time.Now().UTC(),
			}); err != nil {
				log.Errorf("diff: record result: %v", err)
			}
		}
	}

	if *sign {
		signer, err := signing.NewSigner(os.Getenv("DBC_REPORT_PUBLIC_KEY"), os.Getenv("DBC_REPORT_PRIVATE_KEY"))
		if err != nil {
			log.Fatalf("diff: %v", err)
		}
		token, err := signer.SignReport(leftPath, rightPath, difference)
		if err != nil {
			log.Fatalf("diff: sign report: %v", err)
		}
		fmt.Fprintf(os.Stderr, "signed-report: %s\n", token)
	}

	if *publish && config.Keys.NatsURL != "" {
		pub, err := notify.Connect(config.Keys.NatsURL)
		if err != nil {
			log.Errorf("diff: notify: %v", err)
		} else {
			defer pub.Close()
			if err := pub.PublishDiffResult(notify.DiffResult{
				LeftPath: leftPath, RightPath: rightPath,
				Difference: difference, Equal: difference == "", DiffedAt: time.Now().UTC(),
			}); err != nil {
				log.Errorf("diff: notify: %v", err)
			}
		}
	}

	os.Exit(0)
}

func fetchSources(ctx context.Context, leftPath, rightPath string, useArchive bool) (string, string, error) {
	if !useArchive {
		leftText, err := os.ReadFile(leftPath)
		if err != nil {
			return "", "", err
		}
		rightText, err := os.ReadFile(rightPath)
		if err != nil {
			return "", "", err
		}
		return string(leftText), string(rightText), nil
	}

	if config.Keys.Archive == nil {
		return "", "", fmt.Errorf("no archive configured")
	}
	store, err := archive.Open(ctx, archive.Config{
		Bucket: config.Keys.Archive.Bucket,
		Region: config.Keys.Archive.Region,
		Prefix: config.Keys.Archive.Prefix,
	})
	if err != nil {
		return "", "", err
	}
	left, err := store.Pull(ctx, leftPath)
	if err != nil {
		return "", "", err
	}
	right, err := store.Pull(ctx, rightPath)
	if err != nil {
		return "", "", err
	}
	return string(left), string(right), nil
}

// runServe implements "dbc-tool serve": the rate-limited /diff and
// /metrics HTTP endpoints.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	registerGlobalFlags(fs)
	addr := fs.String("addr", ":8090", "Listen address")
	ratePerSecond := fs.Float64("rate", 5, "Maximum /diff requests per second")
	fs.Parse(args)
	setup()

	if *addr == ":8090" && config.Keys.MetricsAddr != "" {
		*addr = config.Keys.MetricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := metricsserver.New(*addr, *ratePerSecond)
	log.Infof("serve: listening on %s", *addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// runSchedule implements "dbc-tool schedule": periodic re-diff of two
// archive-tracked sources, running until interrupted.
func runSchedule(args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	registerGlobalFlags(fs)
	fs.Parse(args)
	setup()

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: dbc-tool schedule [flags] <left> <right>")
		os.Exit(2)
	}
	leftPath, rightPath := rest[0], rest[1]

	interval, err := time.ParseDuration(config.Keys.SchedulerInterval)
	if err != nil {
		log.Fatalf("schedule: parse scheduler-interval: %v", err)
	}

	sched, err := scheduler.New(interval, func(ctx context.Context) error {
		leftText, rightText, err := fetchSources(ctx, leftPath, rightPath, true)
		if err != nil {
			return err
		}
		leftBus, err := dbc.Parse(leftText)
		if err != nil {
			return fmt.Errorf("parse %s: %w", leftPath, err)
		}
		rightBus, err := dbc.Parse(rightText)
		if err != nil {
			return fmt.Errorf("parse %s: %w", rightPath, err)
		}
		log.Infof("schedule: re-diffed %s vs %s", leftPath, rightPath)
		_ = leftBus.Diff(rightBus)
		return nil
	})
	if err != nil {
		log.Fatalf("schedule: %v", err)
	}

	sched.Start()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	if err := sched.Stop(); err != nil {
		log.Errorf("schedule: stop: %v", err)
	}
}
