package ecsruntime

import (
	"context"
	"io"
	"time"
)

// Scheduler coordinates schedule execution each tick.
type Scheduler interface {
	Tick(ctx context.Context, dt time.Duration) error
	Run(ctx context.Context, steps int, dt time.Duration) error
	RunWithTrace(ctx context.Context, w io.Writer, fn func() error) error
	RegisterSchedule(cfg ScheduleConfig) (ScheduleHandle, error)
	Builder() SchedulerBuilder

	// BuildAllGraphs compiles every registered schedule's execution graph
	// (spec.md §4.12) and orders the schedules themselves by stage
	// partitioning and explicit inter-schedule constraints. Tick/Run call it
	// lazily on first use; callers that want build errors surfaced ahead of
	// the first tick (e.g. to log a detected cycle before the game loop
	// starts) may call it directly.
	BuildAllGraphs() error

	// DeclareSetBefore records that every member of a must run before every
	// member of b, within whichever schedule both happen to share (spec.md
	// §3, "System set").
	DeclareSetBefore(a, b SystemSetID)
	// DeclareSetAfter records that every member of a must run after every
	// member of b.
	DeclareSetAfter(a, b SystemSetID)

	// SystemCount returns the total number of system registrations across
	// every schedule (a system registered in two schedules counts twice, per
	// spec.md §4.10: "each registration is an independent node").
	SystemCount() int
	// ContainsSystem reports whether id is registered in schedule.
	ContainsSystem(id SystemID, schedule ScheduleID) bool
	// Clear removes every schedule, system-set, and cached graph, returning
	// the scheduler to its just-constructed state.
	Clear()
}

// SchedulerBuilder configures scheduler options prior to construction.
type SchedulerBuilder interface {
	WithSyncOrder(order []ScheduleID) SchedulerBuilder
	WithAsyncWorkers(count int) SchedulerBuilder
	WithErrorPolicy(id ScheduleID, policy ErrorPolicy) SchedulerBuilder
	WithInstrumentation(cfg InstrumentationConfig) SchedulerBuilder
	Build(world *World) (Scheduler, error)
}

// ScheduleConfig declares a set of systems and execution preferences for one
// schedule. A schedule's Stage determines how its systems are driven: the
// main stage runs sequentially on the calling goroutine so event visibility
// is same-phase (spec.md §4.12), any other stage is compiled into a task DAG
// and submitted to the worker pool.
type ScheduleConfig struct {
	ID      ScheduleID
	Stage   StageKind
	Systems []System

	// Priority is the schedule's phase ordinal (spec.md §3: "each schedule
	// belongs to a stage ... an outer phase such as startup, main, update,
	// cleanup"). Schedules are partitioned by Priority before the
	// inter-schedule DAG is built: every schedule at a lower Priority
	// precedes every schedule at a higher one, regardless of Stage (which
	// only controls sequential-vs-DAG dispatch within one schedule).
	// Schedules sharing a Priority are ordered by Before/After and, failing
	// that, by the WithSyncOrder hint and then registration order.
	Priority int
	// Before lists schedules that must run after this one (within the same
	// tick), independent of Priority partitioning.
	Before []ScheduleID
	// After lists schedules that must run before this one.
	After []ScheduleID

	Interval    TickInterval
	ErrorPolicy ErrorPolicy
}

// StageKind selects how a schedule's systems are driven.
type StageKind uint8

const (
	// StageMain runs systems sequentially on the calling goroutine, merging
	// each system's local event queue immediately after it runs.
	StageMain StageKind = iota
	// StageParallel submits the schedule's task DAG to the worker pool and
	// merges every system's local event queue after the whole DAG completes.
	StageParallel
)

// ScheduleID uniquely identifies a schedule within the scheduler.
type ScheduleID string

// ScheduleHandle references a registered schedule for future configuration.
type ScheduleHandle interface {
	ID() ScheduleID
}

// SystemSetID groups systems so ordering can be declared between sets rather
// than individual systems (spec.md §4.11, "system-set-derived ordering").
type SystemSetID string

// TickInterval controls how frequently a system or schedule runs.
type TickInterval struct {
	Every  uint32
	Offset uint32
}

// ErrorPolicy defines how the scheduler responds to system failures.
type ErrorPolicy uint8

const (
	ErrorPolicyAbort ErrorPolicy = iota
	ErrorPolicyContinue
	ErrorPolicyRetry
)

// InstrumentationConfig configures logging, tracing, and metrics sinks.
type InstrumentationConfig struct {
	EnableTrace   bool
	EnableMetrics bool
	Observer      SchedulerObserver
	Observation   ObservationSettings
}

// ObservationSettings toggles built-in observer integrations.
type ObservationSettings struct {
	EnableStructuredLogging bool
	LoggingFormat           ObservationLogFormat
	StructuredLogger        Logger
	EnablePrometheus        bool
	PrometheusCollector     PrometheusCollector
	PrometheusOptions       *PrometheusCollectorOptions
	EnableTracing           bool
	Tracer                  Tracer
	TracingOptions          *TracingOptions
}

// ObservationLogFormat controls structured logging encoding.
type ObservationLogFormat uint8

const (
	ObservationLogFormatJSON ObservationLogFormat = iota
	ObservationLogFormatKeyValue
)

// SchedulerObserver receives summaries after schedules complete.
type SchedulerObserver interface {
	ScheduleCompleted(summary ScheduleSummary)
}

// PrometheusCollector handles schedule summaries for Prometheus-style
// metrics. The default implementation (observability.go) wraps real
// prometheus/client_golang collectors rather than hand-rolled exposition.
type PrometheusCollector interface {
	ObserveSchedule(summary ScheduleSummary)
}

// PrometheusCollectorOptions configures the default Prometheus collector.
type PrometheusCollectorOptions struct {
	Namespace       string
	DurationBuckets []float64
}

// TracingOptions configures the default tracer.
type TracingOptions struct {
	ServiceName string
}

// ScheduleSummary captures execution metadata for a schedule run.
type ScheduleSummary struct {
	ScheduleID      ScheduleID
	Stage           StageKind
	Tick            uint64
	Duration        time.Duration
	SystemsTotal    int
	SystemsExecuted int
	SystemsSkipped  int
	Error           error
	ComponentReads  []ComponentType
	ComponentWrites []ComponentType
	ResourceReads   []ResourceID
	ResourceWrites  []ResourceID
}

// System represents executable logic within a schedule.
type System interface {
	Descriptor() SystemDescriptor
	Run(ctx context.Context, exec ExecutionContext) SystemResult
}

// SystemDescriptor describes access patterns and ordering metadata for a
// system. A system may declare more than one QueryAccess (spec.md §4.9:
// "an access policy ... for each query the system declares"); Resources
// captures resource-level read/write intent separately, since resources are
// addressed by type rather than iterated.
type SystemDescriptor struct {
	Name         string
	Queries      []QueryAccess
	Resources    []ResourceAccess
	Sets         []SystemSetID
	After        []SystemID
	Before       []SystemID
	Tags         []string
	RunEvery     TickInterval
	AsyncAllowed bool
}

// QueryAccess records the read and write component sets of a single query
// declared by a system.
type QueryAccess struct {
	Reads  []ComponentType
	Writes []ComponentType
}

// ResourceAccess declares mutable or immutable access to a resource type.
// ThreadSafe exempts the resource from conflict analysis regardless of the
// declared AccessMode. It is set per access and is independent of
// resourceMap.MarkThreadSafe, which the scheduler does not consult.
type ResourceAccess struct {
	ID         ResourceID
	Mode       AccessMode
	ThreadSafe bool
}

// AccessMode indicates read or write intent when using a resource.
type AccessMode uint8

const (
	AccessModeRead AccessMode = iota
	AccessModeWrite
)

// SystemResult indicates how a system behaved during execution.
type SystemResult struct {
	Skipped bool
	Err     error
}

// ExecutionContext supplies a system with scoped access to the world and its
// own per-invocation local storage (spec.md §4.8).
type ExecutionContext interface {
	World() *World
	TimeDelta() time.Duration
	TickIndex() uint64
	Logger() Logger
	Defer(cmd Command)
	Events() *EventQueue
}

// StorageProvider manages component storage backends, one per registered
// component type.
type StorageProvider interface {
	RegisterComponent(ComponentType, StorageStrategy) error
	View(ComponentType) (ComponentView, error)
	Apply(*World, []Command) error
}

// StorageStrategy describes how a component type is stored internally.
type StorageStrategy interface {
	Name() string
	NewStore(ComponentType) ComponentStore
}

// ComponentStore permits read/write access to component instances.
type ComponentStore interface {
	ComponentView
	Set(EntityID, any) error
	Remove(EntityID) bool
	Clear()
}

// ComponentView exposes read-only iteration over stored components.
type ComponentView interface {
	ComponentType() ComponentType
	Len() int
	Has(EntityID) bool
	Get(EntityID) (any, bool)
	Iterate(func(EntityID, any) bool)
}

// Command represents a deferred mutation applied outside system execution.
type Command interface {
	Apply(world *World) error
}

// Logger captures structured log output from systems and the scheduler.
type Logger interface {
	With(key string, value any) Logger
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Tracer coordinates tracing spans for observability tooling.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, TraceSpan)
}

// TraceSpan represents an active tracing region.
type TraceSpan interface {
	End()
}
