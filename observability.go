package ecsruntime

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type compositeObserver struct {
	observers []SchedulerObserver
}

func (c compositeObserver) ScheduleCompleted(summary ScheduleSummary) {
	for _, observer := range c.observers {
		observer.ScheduleCompleted(summary)
	}
}

type noopObserver struct{}

func (noopObserver) ScheduleCompleted(ScheduleSummary) {}

type loggingObserver struct {
	logger Logger
	format ObservationLogFormat
}

func newLoggingObserver(logger Logger, format ObservationLogFormat) SchedulerObserver {
	if logger == nil {
		return noopObserver{}
	}
	if format != ObservationLogFormatKeyValue {
		format = ObservationLogFormatJSON
	}
	return loggingObserver{logger: logger, format: format}
}

func (o loggingObserver) ScheduleCompleted(summary ScheduleSummary) {
	builder := o.logger.With("schedule", string(summary.ScheduleID))
	args := []any{
		"stage", stageLabel(summary.Stage),
		"tick", summary.Tick,
		"duration", summary.Duration,
		"systems_total", summary.SystemsTotal,
		"systems_executed", summary.SystemsExecuted,
		"systems_skipped", summary.SystemsSkipped,
	}
	if o.format == ObservationLogFormatKeyValue {
		args = append(args,
			"component_reads", joinComponentTypes(summary.ComponentReads),
			"component_writes", joinComponentTypes(summary.ComponentWrites),
		)
	}
	if summary.Error != nil {
		args = append(args, "error", summary.Error.Error())
	}
	builder.Info("schedule completed", args...)
}

// zerologLogger adapts the chained .With() builder of zerolog to the
// package's Logger seam.
type zerologLogger struct {
	ctx zerolog.Context
}

// NewZerologLogger wraps lg as a Logger.
func NewZerologLogger(lg zerolog.Logger) Logger {
	return zerologLogger{ctx: lg.With()}
}

func (z zerologLogger) With(key string, value any) Logger {
	return zerologLogger{ctx: z.ctx.Interface(key, value)}
}

func (z zerologLogger) Info(msg string, args ...any) {
	z.ctx.Logger().Info().Fields(pairsToMap(args)).Msg(msg)
}

func (z zerologLogger) Error(msg string, args ...any) {
	z.ctx.Logger().Error().Fields(pairsToMap(args)).Msg(msg)
}

func pairsToMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "arg" + strconv.Itoa(i)
		}
		out[key] = args[i+1]
	}
	return out
}

// NoopLogger discards everything; used when the host embeds the core
// without wiring a real sink.
type NoopLogger struct{}

func (NoopLogger) With(string, any) Logger { return NoopLogger{} }
func (NoopLogger) Info(string, ...any)     {}
func (NoopLogger) Error(string, ...any)    {}

var _ Logger = NoopLogger{}

// prometheusScheduleCollector wires real prometheus/client_golang metrics,
// replacing the teacher's hand-rolled text-exposition collector.
type prometheusScheduleCollector struct {
	duration *prometheus.HistogramVec
	executed *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewPrometheusScheduleCollector constructs a PrometheusCollector and
// registers its metrics against reg. A nil reg registers against the
// default global registry.
func NewPrometheusScheduleCollector(reg prometheus.Registerer, opts *PrometheusCollectorOptions) PrometheusCollector {
	if opts == nil {
		opts = &PrometheusCollectorOptions{}
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "ecsruntime"
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &prometheusScheduleCollector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "schedule_duration_seconds",
			Help:      "Schedule execution duration.",
			Buckets:   buckets,
		}, []string{"schedule_id", "stage"}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "schedule_systems_executed_total",
			Help:      "Systems executed per schedule.",
		}, []string{"schedule_id", "stage"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "schedule_systems_skipped_total",
			Help:      "Systems skipped per schedule.",
		}, []string{"schedule_id", "stage"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "schedule_errors_total",
			Help:      "Schedule error count.",
		}, []string{"schedule_id", "stage"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(c.duration, c.executed, c.skipped, c.errors)
	return c
}

func (c *prometheusScheduleCollector) ObserveSchedule(summary ScheduleSummary) {
	labels := prometheus.Labels{"schedule_id": string(summary.ScheduleID), "stage": stageLabel(summary.Stage)}
	c.duration.With(labels).Observe(summary.Duration.Seconds())
	c.executed.With(labels).Add(float64(summary.SystemsExecuted))
	c.skipped.With(labels).Add(float64(summary.SystemsSkipped))
	if summary.Error != nil {
		c.errors.With(labels).Inc()
	}
}

type prometheusObserver struct {
	collector PrometheusCollector
}

func newPrometheusObserver(collector PrometheusCollector) SchedulerObserver {
	if collector == nil {
		return noopObserver{}
	}
	return prometheusObserver{collector: collector}
}

func (o prometheusObserver) ScheduleCompleted(summary ScheduleSummary) {
	o.collector.ObserveSchedule(summary)
}

// uuidTracer is the default Tracer: every span carries a google/uuid trace
// id, logged through the configured Logger rather than exported over the
// network (the teacher's SigNoz exporter wrote JSON lines to an io.Writer;
// here the same role is filled by structured log fields, since the pack's
// other tracing-capable repos all route through a logger rather than a
// bespoke exporter).
type uuidTracer struct {
	logger Logger
}

// NewUUIDTracer constructs a Tracer that logs span start/end with a
// google/uuid-derived span id through logger.
func NewUUIDTracer(logger Logger) Tracer {
	if logger == nil {
		logger = NoopLogger{}
	}
	return uuidTracer{logger: logger}
}

func (t uuidTracer) Start(ctx context.Context, name string) (context.Context, TraceSpan) {
	span := &uuidSpan{
		logger:    t.logger.With("span_id", uuid.NewString()).With("span_name", name),
		startedAt: time.Now(),
	}
	span.logger.Info("span started")
	return ctx, span
}

type uuidSpan struct {
	logger    Logger
	startedAt time.Time
}

func (s *uuidSpan) End() {
	s.logger.Info("span ended", "duration", time.Since(s.startedAt))
}

func joinComponentTypes(types []ComponentType) string {
	if len(types) == 0 {
		return ""
	}
	out := make([]byte, 0, len(types)*8)
	for i, t := range types {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, []byte(t.String())...)
	}
	return string(out)
}

// BuildObserverChain is the exported entry point other packages (notably
// schedule) use to assemble the same logging/Prometheus/custom-observer
// chain the root package wires internally, without duplicating the policy.
func BuildObserverChain(logger Logger, cfg InstrumentationConfig) SchedulerObserver {
	return buildObserverChain(logger, cfg)
}

func buildObserverChain(logger Logger, cfg InstrumentationConfig) SchedulerObserver {
	var observers []SchedulerObserver

	if cfg.Observer != nil {
		observers = append(observers, cfg.Observer)
	}

	obs := cfg.Observation

	if obs.EnableStructuredLogging {
		structuredLogger := obs.StructuredLogger
		if structuredLogger == nil {
			structuredLogger = logger
		}
		observers = append(observers, newLoggingObserver(structuredLogger, obs.LoggingFormat))
	}

	if obs.EnablePrometheus {
		collector := obs.PrometheusCollector
		if collector == nil {
			collector = NewPrometheusScheduleCollector(nil, obs.PrometheusOptions)
		}
		observers = append(observers, newPrometheusObserver(collector))
	}

	if len(observers) == 0 {
		return noopObserver{}
	}
	if len(observers) == 1 {
		return observers[0]
	}
	return compositeObserver{observers: observers}
}

func stageLabel(stage StageKind) string {
	if stage == StageParallel {
		return "parallel"
	}
	return "main"
}
