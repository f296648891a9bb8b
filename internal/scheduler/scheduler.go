package scheduler

import (
	"context"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner is one unit of scheduled work. It must refuse to overlap with
// itself; the scheduler does not serialize ticks.
type Runner interface {
	Run(ctx context.Context) bool
}

type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	spec       string
	runOnStart bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(spec string, runner Runner, runOnStart bool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(),
		runner:     runner,
		spec:       spec,
		runOnStart: runOnStart,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Printf("scheduled check triggered")
		s.trigger()
	})
	if err != nil {
		return err
	}

	if s.runOnStart {
		log.Printf("initial check triggered")
		s.trigger()
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) trigger() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runner.Run(s.ctx)
	}()
}

// Stop halts future ticks, cancels the running cycle and waits for it.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cancel()
	s.wg.Wait()
}
