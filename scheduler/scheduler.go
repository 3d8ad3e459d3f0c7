// seehuhn.de/go/pdfview - a PDF viewer with freehand annotations
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package scheduler runs expensive rasterisation jobs with a bounded
// degree of concurrency, and provides the tokens and timers used to
// abandon work which has been superseded.
//
// Jobs are started in the order they were scheduled.  A job which has
// started always runs to completion; jobs must check their [Token] after
// every blocking call and return early once it is no longer valid.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"seehuhn.de/go/pdfview"
)

// DefaultLimit is the default number of jobs which may run at the same
// time.
const DefaultLimit = 2

// Scheduler is a FIFO job queue with a concurrency limit.
// It is safe for concurrent use.
type Scheduler struct {
	limit  int
	logger *slog.Logger

	mu     sync.Mutex
	idle   *sync.Cond
	queue  []func()
	active int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New returns a scheduler which runs at most limit jobs concurrently.
// If limit is not positive, [DefaultLimit] is used.
func New(limit int, opts ...Option) *Scheduler {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Scheduler{
		limit:  limit,
		logger: pdfview.Logger(),
	}
	s.idle = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule appends job to the queue and starts queued jobs while slots
// are free.  Schedule never blocks on the job itself.
func (s *Scheduler) Schedule(job func()) {
	s.mu.Lock()
	s.queue = append(s.queue, job)
	s.pumpLocked()
	s.mu.Unlock()
}

// pumpLocked starts queued jobs until the limit is reached.
// The caller must hold s.mu.
func (s *Scheduler) pumpLocked() {
	for s.active < s.limit && len(s.queue) > 0 {
		job := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.active++
		go s.run(job)
	}
}

func (s *Scheduler) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("render job panicked", "panic", fmt.Sprint(r))
		}
		s.mu.Lock()
		s.active--
		s.pumpLocked()
		if s.active == 0 && len(s.queue) == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}()
	job()
}

// Active returns the number of jobs currently running.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Pending returns the number of jobs waiting for a free slot.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until no job is running or queued.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.active > 0 || len(s.queue) > 0 {
		s.idle.Wait()
	}
}
