// Package config loads scheduler topology from YAML manifests: which
// schedules exist, their stage/priority/ordering/interval/error-policy, and
// which named systems belong to each. The manifest never carries Go values
// (systems are code), so callers supply a SystemRegistry mapping the names
// used in the manifest to live ecs.System instances, the same way a
// Kubernetes-style manifest references images rather than embedding binaries.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	ecs "github.com/forgecraft/ecsruntime"
)

// Document is the root of a scheduler topology manifest.
type Document struct {
	AsyncWorkers    int             `yaml:"asyncWorkers"`
	Instrumentation Instrumentation `yaml:"instrumentation"`
	Schedules       []ScheduleSpec  `yaml:"schedules"`
}

// Instrumentation mirrors ecs.ObservationSettings' toggles; the fields that
// take live Go values (custom Logger/Tracer/PrometheusCollector) are set by
// the host after loading, not by the manifest.
type Instrumentation struct {
	StructuredLogging bool   `yaml:"structuredLogging"`
	LoggingFormat     string `yaml:"loggingFormat"` // "json" or "keyvalue"
	Prometheus        bool   `yaml:"prometheus"`
	Trace             bool   `yaml:"trace"`
}

// ScheduleSpec describes one ecs.ScheduleConfig, with Systems given by name
// rather than value.
type ScheduleSpec struct {
	ID          string   `yaml:"id"`
	Stage       string   `yaml:"stage"` // "main" or "parallel"
	Priority    int      `yaml:"priority"`
	Before      []string `yaml:"before"`
	After       []string `yaml:"after"`
	Every       uint32   `yaml:"every"`
	Offset      uint32   `yaml:"offset"`
	ErrorPolicy string   `yaml:"errorPolicy"` // "abort", "continue", or "retry"
	Systems     []string `yaml:"systems"`
}

// SystemRegistry resolves the system names used in a manifest to live
// instances. A host registers every system it knows how to construct before
// calling Apply.
type SystemRegistry map[string]ecs.System

// Load parses a YAML manifest into a Document.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse manifest: %w", err)
	}
	return &doc, nil
}

// Apply registers every schedule in doc against sched, resolving each
// schedule's named systems through registry, and returns the resulting
// ecs.ScheduleID-to-handle map. It does not call sched.BuildAllGraphs —
// callers that want build errors surfaced before the first tick should call
// that themselves afterward.
func Apply(sched ecs.Scheduler, doc *Document, registry SystemRegistry) (map[ecs.ScheduleID]ecs.ScheduleHandle, error) {
	if doc == nil {
		return nil, fmt.Errorf("config: nil document")
	}

	builder := sched.Builder()
	if doc.AsyncWorkers > 0 {
		builder = builder.WithAsyncWorkers(doc.AsyncWorkers)
	}

	instr := ecs.InstrumentationConfig{
		EnableTrace: doc.Instrumentation.Trace,
		Observation: ecs.ObservationSettings{
			EnableStructuredLogging: doc.Instrumentation.StructuredLogging,
			LoggingFormat:           parseLogFormat(doc.Instrumentation.LoggingFormat),
			EnablePrometheus:        doc.Instrumentation.Prometheus,
		},
	}
	builder = builder.WithInstrumentation(instr)
	if _, err := builder.Build(nil); err != nil {
		return nil, fmt.Errorf("config: apply builder options: %w", err)
	}

	handles := make(map[ecs.ScheduleID]ecs.ScheduleHandle, len(doc.Schedules))
	for _, spec := range doc.Schedules {
		if spec.ID == "" {
			return nil, fmt.Errorf("config: schedule with empty id")
		}

		stage, err := parseStage(spec.Stage)
		if err != nil {
			return nil, fmt.Errorf("config: schedule %s: %w", spec.ID, err)
		}

		policy, err := parseErrorPolicy(spec.ErrorPolicy)
		if err != nil {
			return nil, fmt.Errorf("config: schedule %s: %w", spec.ID, err)
		}

		systems := make([]ecs.System, 0, len(spec.Systems))
		for _, name := range spec.Systems {
			sys, ok := registry[name]
			if !ok {
				return nil, fmt.Errorf("config: schedule %s: unknown system %q", spec.ID, name)
			}
			systems = append(systems, sys)
		}

		cfg := ecs.ScheduleConfig{
			ID:          ecs.ScheduleID(spec.ID),
			Stage:       stage,
			Systems:     systems,
			Priority:    spec.Priority,
			Before:      toScheduleIDs(spec.Before),
			After:       toScheduleIDs(spec.After),
			Interval:    ecs.TickInterval{Every: spec.Every, Offset: spec.Offset},
			ErrorPolicy: policy,
		}

		handle, err := sched.RegisterSchedule(cfg)
		if err != nil {
			return nil, fmt.Errorf("config: schedule %s: %w", spec.ID, err)
		}
		handles[cfg.ID] = handle
	}

	return handles, nil
}

func toScheduleIDs(names []string) []ecs.ScheduleID {
	if len(names) == 0 {
		return nil
	}
	out := make([]ecs.ScheduleID, len(names))
	for i, n := range names {
		out[i] = ecs.ScheduleID(n)
	}
	return out
}

func parseStage(s string) (ecs.StageKind, error) {
	switch s {
	case "", "main":
		return ecs.StageMain, nil
	case "parallel":
		return ecs.StageParallel, nil
	default:
		return 0, fmt.Errorf("unknown stage %q (want \"main\" or \"parallel\")", s)
	}
}

func parseErrorPolicy(s string) (ecs.ErrorPolicy, error) {
	switch s {
	case "", "abort":
		return ecs.ErrorPolicyAbort, nil
	case "continue":
		return ecs.ErrorPolicyContinue, nil
	case "retry":
		return ecs.ErrorPolicyRetry, nil
	default:
		return 0, fmt.Errorf("unknown errorPolicy %q (want \"abort\", \"continue\", or \"retry\")", s)
	}
}

func parseLogFormat(s string) ecs.ObservationLogFormat {
	if s == "keyvalue" {
		return ecs.ObservationLogFormatKeyValue
	}
	return ecs.ObservationLogFormatJSON
}
