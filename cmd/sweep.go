package main

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

// sweepSchedule keeps the idle-session sweep registered on the cron engine
// and swaps the entry when the expression changes.
type sweepSchedule struct {
	cron     *cron.Cron
	sessions *service.Sessions

	mu    sync.Mutex
	expr  string
	entry cron.EntryID
}

func newSweepSchedule(c *cron.Cron, sessions *service.Sessions, expr string) *sweepSchedule {
	return &sweepSchedule{cron: c, sessions: sessions, expr: expr}
}

func (s *sweepSchedule) Schedule(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.sessions.ScheduleSweep(s.cron, s.expr)
	if err != nil {
		return err
	}
	s.entry = id
	log.Info("Session sweep scheduled: %s", s.expr)
	return nil
}

func (s *sweepSchedule) Reschedule(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expr == s.expr && s.entry != 0 {
		return nil
	}
	id, err := s.sessions.ScheduleSweep(s.cron, expr)
	if err != nil {
		return err
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = id
	s.expr = expr
	log.Info("Session sweep rescheduled: %s", expr)
	return nil
}

func (s *sweepSchedule) Expr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expr
}
