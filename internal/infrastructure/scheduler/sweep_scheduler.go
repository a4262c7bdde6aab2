// Package scheduler dispara el barrido de convenios con robfig/cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/Convenios-api/internal/application/dto"
	"github.com/jhoicas/Convenios-api/internal/domain"
	"github.com/jhoicas/Convenios-api/pkg/logger"
)

// DefaultSchedule intervalo por defecto entre barridos.
const DefaultSchedule = "@every 24h"

// Sweeper ejecuta una pasada del barrido. Lo implementa *convenio.SweepUseCase.
type Sweeper interface {
	Run(ctx context.Context) (*dto.SweepSummary, error)
}

// SweepScheduler ejecuta el barrido al iniciar (opcional) y luego según la expresión cron.
// Dentro del proceso nunca hay dos barridos simultáneos: los disparos que llegan
// con uno en curso se omiten. Entre procesos no hay exclusión.
type SweepScheduler struct {
	sweeper    Sweeper
	cron       *cron.Cron
	schedule   string
	runOnStart bool
	log        *logger.Logger

	runMu   sync.Mutex
	startWg sync.WaitGroup
	baseCtx context.Context
	started bool
}

// Options configuración del scheduler.
type Options struct {
	Schedule   string // expresión cron estándar o descriptor (@every 24h, @daily)
	RunOnStart bool
	Location   *time.Location
}

// New construye el scheduler. No arranca nada hasta Start.
func New(sweeper Sweeper, opts Options, log *logger.Logger) *SweepScheduler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("scheduler")
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	return &SweepScheduler{
		sweeper:    sweeper,
		schedule:   opts.Schedule,
		runOnStart: opts.RunOnStart,
		log:        log,
		baseCtx:    context.Background(),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start registra el job y arranca el cron. Si RunOnStart está activo lanza un barrido
// inmediato en segundo plano. ctx solo aporta valores: cancelarlo no interrumpe un barrido.
func (s *SweepScheduler) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("scheduler: ya iniciado")
	}
	s.baseCtx = context.WithoutCancel(ctx)

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("scheduler: expresión %q inválida: %w", s.schedule, err)
	}
	if s.runOnStart {
		s.startWg.Add(1)
		go func() {
			defer s.startWg.Done()
			s.runScheduled()
		}()
	}
	s.cron.Start()
	s.started = true
	s.log.Info().
		Str("schedule", s.schedule).
		Bool("run_on_start", s.runOnStart).
		Msg("barrido de convenios programado")
	return nil
}

// Stop detiene los disparos futuros. El contexto devuelto termina cuando el
// barrido en curso (si lo hay) finaliza; no se interrumpe.
func (s *SweepScheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.startWg.Wait()
		cancel()
	}()
	return ctx
}

// Run ejecuta un barrido de forma síncrona (disparo manual). Devuelve
// domain.ErrSweepInProgress si ya hay uno en curso en este proceso.
func (s *SweepScheduler) Run(ctx context.Context) (*dto.SweepSummary, error) {
	if !s.runMu.TryLock() {
		return nil, domain.ErrSweepInProgress
	}
	defer s.runMu.Unlock()
	return s.sweeper.Run(ctx)
}

func (s *SweepScheduler) runScheduled() {
	summary, err := s.Run(s.baseCtx)
	switch {
	case errors.Is(err, domain.ErrSweepInProgress):
		s.log.Warn().Msg("barrido omitido: hay otro en ejecución")
	case err != nil:
		s.log.Error().Err(err).Msg("barrido programado falló")
	default:
		s.log.Debug().
			Int("agreements_scanned", summary.AgreementsScanned).
			Int("agreements_failed", summary.AgreementsFailed).
			Msg("barrido programado completado")
	}
}

// cronLogger adapta logger.Logger a cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
