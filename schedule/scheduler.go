package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/trace"
	"sort"
	"sync"
	"time"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/workerpool"
)

// impl is the top-level Scheduler of spec.md §4.12: it owns every schedule,
// the global system-set registry, and the schedule-level topological order,
// and drives run_tick each frame.
type impl struct {
	mu sync.RWMutex

	world *ecs.World

	schedules map[ecs.ScheduleID]*scheduleState
	regOrder  []ecs.ScheduleID
	syncOrder []ecs.ScheduleID // manual tiebreak hint from WithSyncOrder
	order     []ecs.ScheduleID // compiled topological order; nil means dirty
	dirty     bool

	sets *setRegistry
	lsPool *localStoragePool

	pool         *workerpool.Pool
	asyncWorkers int

	errorPolicies map[ecs.ScheduleID]ecs.ErrorPolicy

	logger          ecs.Logger
	tracer          ecs.Tracer
	observer        ecs.SchedulerObserver
	instrumentation ecs.InstrumentationConfig

	tickIndex uint64
}

// NewScheduler constructs a Scheduler bound to world (a fresh World if nil).
func NewScheduler(world *ecs.World) (ecs.Scheduler, error) {
	if world == nil {
		world = ecs.NewWorld()
	}
	s := &impl{
		world:         world,
		schedules:     make(map[ecs.ScheduleID]*scheduleState),
		sets:          newSetRegistry(),
		lsPool:        newLocalStoragePool(),
		errorPolicies: make(map[ecs.ScheduleID]ecs.ErrorPolicy),
		logger:        ecs.NoopLogger{},
		dirty:         true,
	}
	s.applyInstrumentation(ecs.InstrumentationConfig{})
	return s, nil
}

// --- SchedulerBuilder ---

type builder struct{ s *impl }

func (s *impl) Builder() ecs.SchedulerBuilder { return &builder{s: s} }

func (b *builder) WithSyncOrder(order []ecs.ScheduleID) ecs.SchedulerBuilder {
	b.s.mu.Lock()
	b.s.syncOrder = append([]ecs.ScheduleID(nil), order...)
	b.s.dirty = true
	b.s.mu.Unlock()
	return b
}

func (b *builder) WithAsyncWorkers(count int) ecs.SchedulerBuilder {
	if count < 0 {
		count = 0
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.asyncWorkers = count
	if b.s.pool != nil {
		b.s.pool.Close()
		b.s.pool = nil
	}
	if count > 0 {
		if p, err := workerpool.New(workerpool.WithSize(count)); err == nil {
			b.s.pool = p
		}
	}
	return b
}

func (b *builder) WithErrorPolicy(id ecs.ScheduleID, policy ecs.ErrorPolicy) ecs.SchedulerBuilder {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.errorPolicies[id] = policy
	if st, ok := b.s.schedules[id]; ok {
		st.errorPolicy = policy
	}
	return b
}

func (b *builder) WithInstrumentation(cfg ecs.InstrumentationConfig) ecs.SchedulerBuilder {
	b.s.mu.Lock()
	b.s.applyInstrumentation(cfg)
	b.s.mu.Unlock()
	return b
}

func (b *builder) Build(world *ecs.World) (ecs.Scheduler, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if world != nil {
		b.s.world = world
	} else if b.s.world == nil {
		b.s.world = ecs.NewWorld()
	}
	return b.s, nil
}

func (s *impl) applyInstrumentation(cfg ecs.InstrumentationConfig) {
	s.instrumentation = cfg
	if cfg.Observation.StructuredLogger != nil {
		s.logger = cfg.Observation.StructuredLogger
	} else if s.logger == nil {
		s.logger = ecs.NoopLogger{}
	}
	if cfg.EnableTrace {
		if cfg.Observation.Tracer != nil {
			s.tracer = cfg.Observation.Tracer
		} else {
			s.tracer = ecs.NewUUIDTracer(s.logger)
		}
	} else {
		s.tracer = nil
	}
	s.observer = ecs.BuildObserverChain(s.logger, cfg)
}

// --- registration ---

func (s *impl) RegisterSchedule(cfg ecs.ScheduleConfig) (ecs.ScheduleHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[cfg.ID]; exists {
		return nil, fmt.Errorf("schedule: %s already registered", cfg.ID)
	}
	if cfg.ErrorPolicy == 0 {
		if p, ok := s.errorPolicies[cfg.ID]; ok {
			cfg.ErrorPolicy = p
		}
	}

	st, err := newScheduleState(cfg, s.sets)
	if err != nil {
		return nil, err
	}

	if st.stage != ecs.StageMain && s.pool == nil {
		workers := s.asyncWorkers
		if workers <= 0 {
			workers = runtime.NumCPU()
			if workers <= 0 {
				workers = 1
			}
			s.asyncWorkers = workers
		}
		if p, perr := workerpool.New(workerpool.WithSize(workers)); perr == nil {
			s.pool = p
		}
	}

	s.schedules[cfg.ID] = st
	s.regOrder = append(s.regOrder, cfg.ID)
	s.dirty = true
	return scheduleHandle{id: cfg.ID}, nil
}

func (s *impl) DeclareSetBefore(a, b ecs.SystemSetID) {
	s.sets.declareBefore(a, b)
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *impl) DeclareSetAfter(a, b ecs.SystemSetID) {
	s.sets.declareAfter(a, b)
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *impl) SystemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.schedules {
		n += len(st.nodes)
	}
	return n
}

func (s *impl) ContainsSystem(id ecs.SystemID, schedule ecs.ScheduleID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.schedules[schedule]
	if !ok {
		return false
	}
	for _, n := range st.nodes {
		if n.id == id {
			return true
		}
	}
	return false
}

func (s *impl) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = make(map[ecs.ScheduleID]*scheduleState)
	s.regOrder = nil
	s.order = nil
	s.sets.reset()
	s.dirty = true
	s.tickIndex = 0
}

// --- graph building ---

// BuildAllGraphs implements spec.md §4.12's build_all_graphs: it orders the
// schedules themselves (priority partitioning + explicit Before/After,
// cycle-tolerant) and compiles each schedule's own execution graph.
func (s *impl) BuildAllGraphs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildAllGraphsLocked()
}

func (s *impl) buildAllGraphsLocked() error {
	order, cycleErr := s.orderSchedulesLocked()
	s.order = order
	for _, id := range order {
		st := s.schedules[id]
		st.graph = buildExecutionGraph(st.nodes, s.sets, s.logger)
	}
	s.dirty = false
	return cycleErr
}

// orderSchedulesLocked builds the schedule-level DAG from Priority
// partitioning plus explicit Before/After constraints and topologically
// sorts it with Kahn's algorithm. A cycle is logged as a hard error (per
// spec.md §7's "Scheduling anomaly" policy) and the unprocessed remainder is
// appended in registration order so the tick does not deadlock.
func (s *impl) orderSchedulesLocked() ([]ecs.ScheduleID, error) {
	ids := append([]ecs.ScheduleID(nil), s.regOrder...)
	n := len(ids)
	indexOf := make(map[ecs.ScheduleID]int, n)
	for i, id := range ids {
		indexOf[id] = i
	}

	indeg := make([]int, n)
	adj := make([][]int, n)
	addEdge := func(from, to int) {
		adj[from] = append(adj[from], to)
		indeg[to]++
	}

	for i, id := range ids {
		for j, other := range ids {
			if i == j {
				continue
			}
			if s.schedules[id].priority < s.schedules[other].priority {
				addEdge(i, j)
			}
		}
	}
	for i, id := range ids {
		st := s.schedules[id]
		for _, b := range st.before {
			if j, ok := indexOf[b]; ok {
				addEdge(i, j)
			} else {
				s.logger.Info("schedule: inter-schedule before-target missing", "schedule", string(id), "before", string(b))
			}
		}
		for _, a := range st.after {
			if j, ok := indexOf[a]; ok {
				addEdge(j, i)
			} else {
				s.logger.Info("schedule: inter-schedule after-target missing", "schedule", string(id), "after", string(a))
			}
		}
	}

	rank := make(map[ecs.ScheduleID]int, len(s.syncOrder))
	for i, id := range s.syncOrder {
		rank[id] = i
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	sortReady := func() {
		sort.SliceStable(ready, func(a, b int) bool {
			ra, oka := rank[ids[ready[a]]]
			rb, okb := rank[ids[ready[b]]]
			switch {
			case oka && okb:
				return ra < rb
			case oka:
				return true
			case okb:
				return false
			default:
				return ready[a] < ready[b]
			}
		})
	}

	var out []ecs.ScheduleID
	visited := make([]bool, n)
	for len(ready) > 0 {
		sortReady()
		u := ready[0]
		ready = ready[1:]
		visited[u] = true
		out = append(out, ids[u])
		for _, v := range adj[u] {
			indeg[v]--
			if indeg[v] == 0 {
				ready = append(ready, v)
			}
		}
	}

	if len(out) == n {
		return out, nil
	}

	var cycleErr error
	remaining := make([]ecs.ScheduleID, 0, n-len(out))
	for i := 0; i < n; i++ {
		if !visited[i] {
			remaining = append(remaining, ids[i])
		}
	}
	cycleErr = fmt.Errorf("%w: schedules %v form a cycle; appending in registration order", ecs.ErrScheduleCycle, remaining)
	s.logger.Error("schedule: cycle detected among schedules", "involved", fmt.Sprint(remaining))
	out = append(out, remaining...)
	return out, cycleErr
}

func (s *impl) ensureBuilt() error {
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if !dirty {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.buildAllGraphsLocked()
}

// --- execution ---

// maxScheduleRetries bounds ErrorPolicyRetry: a schedule whose systems keep
// failing after this many re-attempts within the same tick falls through to
// ErrorPolicyAbort's behavior rather than retrying forever.
const maxScheduleRetries = 3

func (s *impl) Tick(ctx context.Context, dt time.Duration) error {
	if err := s.ensureBuilt(); err != nil {
		// A schedule cycle is logged and tolerated (spec.md §7); anything
		// else building the graph is fatal to the tick.
		if !errors.Is(err, ecs.ErrScheduleCycle) {
			return err
		}
		s.logger.Error("schedule: build_all_graphs reported an anomaly", "err", err.Error())
	}

	s.mu.RLock()
	order := append([]ecs.ScheduleID(nil), s.order...)
	world := s.world
	tick := s.tickIndex
	logger := s.logger
	pool := s.pool
	s.mu.RUnlock()

	executed := make([]ecs.ScheduleID, 0, len(order))
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.RLock()
		st := s.schedules[id]
		s.mu.RUnlock()
		if st == nil {
			continue
		}
		if !shouldRun(tick, st.interval) {
			continue
		}

		// Commands deferred by the previous schedule (or the previous tick,
		// for the first schedule) become visible here: spec.md §4.12 merges a
		// schedule's command log into the world's pending queue only after
		// that whole schedule completes, and applies the queue at the next
		// schedule boundary rather than immediately.
		if err := world.FlushPendingCommands(); err != nil {
			return err
		}

		summary, err := runSchedule(ctx, st, pool, world, dt, tick, logger, s.lsPool)
		if err != nil && st.errorPolicy == ecs.ErrorPolicyRetry {
			for attempt := 1; attempt <= maxScheduleRetries && err != nil; attempt++ {
				logger.Error("schedule failed, retrying per error policy", "schedule", string(id), "attempt", attempt, "err", err.Error())
				summary, err = runSchedule(ctx, st, pool, world, dt, tick, logger, s.lsPool)
			}
		}
		s.publish(summary)
		if err != nil {
			if st.errorPolicy == ecs.ErrorPolicyContinue {
				logger.Error("schedule failed, continuing per error policy", "schedule", string(id), "err", err.Error())
				continue
			}
			return err
		}
		executed = append(executed, id)
	}

	s.mu.Lock()
	for _, id := range executed {
		if st, ok := s.schedules[id]; ok {
			st.lastRun = tick
		}
	}
	s.tickIndex++
	s.mu.Unlock()
	return nil
}

func (s *impl) publish(summary ecs.ScheduleSummary) {
	s.mu.RLock()
	observer := s.observer
	s.mu.RUnlock()
	if observer != nil {
		observer.ScheduleCompleted(summary)
	}
}

func (s *impl) Run(ctx context.Context, steps int, dt time.Duration) error {
	for i := 0; i < steps; i++ {
		if err := s.Tick(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *impl) RunWithTrace(ctx context.Context, w io.Writer, fn func() error) error {
	s.mu.RLock()
	enabled := s.instrumentation.EnableTrace
	s.mu.RUnlock()
	if enabled && w != nil {
		if err := trace.Start(w); err != nil {
			return err
		}
		defer trace.Stop()
	}
	return fn()
}

var _ ecs.Scheduler = (*impl)(nil)
