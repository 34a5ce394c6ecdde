// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scheduler periodically re-diffs two archive-tracked DBC
// sources, so drift between e.g. a vendor-supplied bus description and
// a locally maintained fork is caught without a human re-running
// dbc-tool by hand.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

// RediffFunc performs one comparison round and reports any error it hit
// (parse/build failure); a non-empty difference is not itself an error.
type RediffFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler running a single recurring re-diff
// job.
type Scheduler struct {
	inner gocron.Scheduler
}

// New builds a Scheduler that invokes fn every interval once Start is
// called; the first run comes one interval after Start, not at Start.
func New(interval time.Duration, fn RediffFunc) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: create: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(context.Background()); err != nil {
				log.Errorf("scheduler: re-diff failed: %v", err)
			}
		}),
		gocron.WithName("dbc-rediff"),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: schedule re-diff job: %w", err)
	}
	return &Scheduler{inner: s}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.inner.Start() }

// Stop waits for any in-flight job to finish and stops the scheduler.
func (s *Scheduler) Stop() error { return s.inner.Shutdown() }
