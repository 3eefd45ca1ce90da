// Package scheduler runs the periodic jobs of the API server.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/docmaster/docmaster/core"
)

// DigestSender emails the stages awaiting review. Implemented by iup.Service.
type DigestSender interface {
	SendDigest(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	digest  DigestSender
	logger  core.Logger
	conf    core.DigestConfig
	timeout time.Duration
}

func New(digest DigestSender, logger core.Logger, conf *core.Config) *Scheduler {
	vala.BeginValidation().Validate(
		vala.IsNotNil(digest, "digest"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		digest:  digest,
		logger:  logger,
		conf:    conf.Digest,
		timeout: time.Minute,
	}
}

// Start registers the jobs and starts the cron loop. It is a no-op when the digest is disabled.
func (s *Scheduler) Start() error {
	if !s.conf.Enabled {
		return nil
	}
	if _, err := s.cron.AddFunc(s.conf.Schedule, s.sendDigest); err != nil {
		return errors.Wrapf(err, "scheduling digest %q", s.conf.Schedule)
	}
	s.cron.Start()
	s.logger.Info(fmt.Sprintf("review digest scheduled: %s", s.conf.Schedule))
	return nil
}

// Stop stops the cron loop and waits for the running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.digest.SendDigest(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("sending review digest: %v", err), err)
		return
	}
	s.logger.Info(fmt.Sprintf("review digest sent to %d recipients", sent))
}
