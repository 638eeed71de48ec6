package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hiremate-backend/internal/decision"
	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/telemetry"
)

const (
	DefaultInterval    = 5 * time.Minute
	DefaultDelay       = 200 * time.Millisecond
	DefaultCallTimeout = 15 * time.Second
)

type Config struct {
	Interval    time.Duration
	Delay       time.Duration
	CallTimeout time.Duration
	// Token is the automation credential; without it every tick is a no-op.
	Token  string
	Engine decision.Engine
}

// TickReport summarizes one pass over all jobs.
type TickReport struct {
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	Skipped      bool          `json:"skipped"`
	Reason       string        `json:"reason,omitempty"`
	Jobs         int           `json:"jobs"`
	Applications int           `json:"applications"`
	Scheduled    int           `json:"scheduled"`
	Promoted     int           `json:"promoted"`
	Failures     int           `json:"failures"`
	Stopped      bool          `json:"stopped"`
}

// Loop runs reconciliation ticks on a timer. A fire while a tick is running
// is dropped.
type Loop struct {
	pipeline Pipeline
	cfg      Config
	tracer   trace.Tracer

	running atomic.Bool
	stopped atomic.Bool

	// sleep waits between applications; it returns early when ctx ends.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

func New(p Pipeline, cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Engine == (decision.Engine{}) {
		cfg.Engine = decision.Default()
	}
	return &Loop{
		pipeline: p,
		cfg:      cfg,
		tracer:   otel.Tracer("hiremate/reconcile"),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Run ticks once immediately and then every interval until ctx is done. It
// waits for the in-flight tick, which stops between items, before returning.
func (l *Loop) Run(ctx context.Context) error {
	telemetry.Info("reconcile.start", map[string]any{
		"interval_ms": l.cfg.Interval.Milliseconds(),
		"delay_ms":    l.cfg.Delay.Milliseconds(),
	})
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Tick(ctx)
		}()
	}

	fire()
	for {
		select {
		case <-ctx.Done():
			l.stopped.Store(true)
			wg.Wait()
			telemetry.Info("reconcile.stop", nil)
			return nil
		case <-ticker.C:
			fire()
		}
	}
}

// Stop asks a running tick to finish after its current call.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

func (l *Loop) stopping(ctx context.Context) bool {
	return l.stopped.Load() || ctx.Err() != nil
}

// Tick makes one reconciliation pass. Failures are counted and logged per
// job or application and never abort the pass.
func (l *Loop) Tick(ctx context.Context) TickReport {
	report := TickReport{StartedAt: l.now().UTC()}
	if !l.running.CompareAndSwap(false, true) {
		metrics.IncReconcileSkipped()
		report.Skipped = true
		report.Reason = "previous tick still running"
		telemetry.Warn("reconcile.tick.skipped", map[string]any{"reason": report.Reason})
		return report
	}
	defer l.running.Store(false)

	if l.cfg.Token == "" {
		metrics.IncReconcileSkipped()
		report.Skipped = true
		report.Reason = "automation token missing"
		telemetry.Warn("reconcile.tick.skipped", map[string]any{"reason": report.Reason})
		return report
	}

	metrics.IncReconcileTicks()
	ctx, span := l.tracer.Start(ctx, "reconcile.tick")
	defer span.End()
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		metrics.ObserveReconcileTickMs(metrics.SinceMillis(start))
		span.SetAttributes(
			attribute.Int("reconcile.jobs", report.Jobs),
			attribute.Int("reconcile.applications", report.Applications),
			attribute.Int("reconcile.scheduled", report.Scheduled),
			attribute.Int("reconcile.promoted", report.Promoted),
			attribute.Int("reconcile.failures", report.Failures),
		)
		telemetry.Info("reconcile.tick.done", map[string]any{
			"jobs":         report.Jobs,
			"applications": report.Applications,
			"scheduled":    report.Scheduled,
			"promoted":     report.Promoted,
			"failures":     report.Failures,
			"stopped":      report.Stopped,
			"duration_ms":  metrics.SinceMillis(start),
		})
	}()

	var jobs []Job
	err := l.call(ctx, func(c context.Context) error {
		var err error
		jobs, err = l.pipeline.ListJobs(c)
		return err
	})
	if err != nil {
		l.fail(&report, span, "list jobs", err, nil)
		return report
	}

	first := true
	for _, job := range jobs {
		if l.stopping(ctx) {
			report.Stopped = true
			return report
		}
		report.Jobs++

		var apps []Application
		err := l.call(ctx, func(c context.Context) error {
			var err error
			apps, err = l.pipeline.ListActive(c, job.ID)
			return err
		})
		if err != nil {
			l.fail(&report, span, "list applications", err, map[string]any{"job_id": job.ID})
			continue
		}

		for _, app := range apps {
			if !first {
				l.sleep(ctx, l.cfg.Delay)
			}
			if l.stopping(ctx) {
				report.Stopped = true
				return report
			}
			first = false
			report.Applications++
			l.process(ctx, &report, job, app)
		}
	}
	return report
}

func (l *Loop) process(ctx context.Context, report *TickReport, job Job, app Application) {
	ctx, span := l.tracer.Start(ctx, "reconcile.application", trace.WithAttributes(
		attribute.String("application.id", app.ID),
		attribute.String("application.status", app.Status),
		attribute.String("job.id", job.ID),
	))
	defer span.End()
	fields := map[string]any{"application_id": app.ID, "job_id": job.ID}

	switch app.Status {
	case StatusQualified:
		var created bool
		err := l.call(ctx, func(c context.Context) error {
			var err error
			created, err = l.pipeline.ScheduleInterview(c, app.ID)
			return err
		})
		if err != nil {
			l.fail(report, span, "schedule interview", err, fields)
			return
		}
		if created {
			report.Scheduled++
			telemetry.Info("reconcile.scheduled", fields)
		}

	case StatusScheduled, StatusInProgress:
		var iv Interview
		var found bool
		err := l.call(ctx, func(c context.Context) error {
			var err error
			iv, found, err = l.pipeline.InterviewFor(c, app.ID)
			return err
		})
		if err != nil {
			l.fail(report, span, "fetch interview", err, fields)
			return
		}
		if !found || iv.Status != InterviewCompleted {
			return
		}
		final := l.finalScore(app, iv)
		fields["final_score"] = final
		if !l.cfg.Engine.Promotable(final) || app.Status == StatusReady {
			telemetry.Debug("reconcile.not_promoted", fields)
			return
		}
		var changed bool
		err = l.call(ctx, func(c context.Context) error {
			var err error
			changed, err = l.pipeline.Promote(c, app.ID, final, promotionNote)
			return err
		})
		if err != nil {
			l.fail(report, span, "promote", err, fields)
			return
		}
		if changed {
			report.Promoted++
			metrics.IncReconcilePromotions()
			telemetry.Info("reconcile.promoted", fields)
		}
	}
}

// finalScore prefers the stored final score and otherwise derives it from
// the qualification and interview scores.
func (l *Loop) finalScore(app Application, iv Interview) float64 {
	if app.FinalScore != nil {
		return *app.FinalScore
	}
	var cv, interview float64
	if app.QualificationScore != nil {
		cv = *app.QualificationScore
	}
	if iv.Score != nil {
		interview = float64(*iv.Score)
	}
	return l.cfg.Engine.FinalScore(cv, interview)
}

// call runs fn with a bounded context detached from ctx's cancellation, so
// stopping the loop lets an in-flight call finish.
func (l *Loop) call(ctx context.Context, fn func(context.Context) error) error {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.CallTimeout)
	defer cancel()
	return fn(c)
}

func (l *Loop) fail(report *TickReport, span trace.Span, step string, err error, fields map[string]any) {
	report.Failures++
	metrics.IncReconcileFailures()
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	if fields == nil {
		fields = map[string]any{}
	}
	fields["step"] = step
	fields["error"] = err
	telemetry.Warn("reconcile.failure", fields)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r TickReport) String() string {
	if r.Skipped {
		return "skipped: " + r.Reason
	}
	return fmt.Sprintf("jobs=%d applications=%d scheduled=%d promoted=%d failures=%d", r.Jobs, r.Applications, r.Scheduled, r.Promoted, r.Failures)
}
