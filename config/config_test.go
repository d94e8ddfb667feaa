package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/config"
	"github.com/forgecraft/ecsruntime/schedule"
)

type noopSystem struct {
	name string
	ran  *int
}

func (s noopSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.SystemDescriptor{Name: s.name}
}

func (s noopSystem) Run(ctx context.Context, ectx ecs.ExecutionContext) ecs.SystemResult {
	if s.ran != nil {
		*s.ran++
	}
	return ecs.SystemResult{}
}

const manifest = `
asyncWorkers: 4
instrumentation:
  structuredLogging: true
  loggingFormat: keyvalue
schedules:
  - id: main
    stage: main
    priority: 1
    systems:
      - tick
`

func TestLoadParsesManifest(t *testing.T) {
	doc, err := config.Load([]byte(manifest))
	require.NoError(t, err)
	require.Equal(t, 4, doc.AsyncWorkers)
	require.True(t, doc.Instrumentation.StructuredLogging)
	require.Equal(t, "keyvalue", doc.Instrumentation.LoggingFormat)
	require.Len(t, doc.Schedules, 1)
	require.Equal(t, "main", doc.Schedules[0].ID)
	require.Equal(t, []string{"tick"}, doc.Schedules[0].Systems)
}

func TestApplyRegistersScheduleAndRunsSystem(t *testing.T) {
	doc, err := config.Load([]byte(manifest))
	require.NoError(t, err)

	world := ecs.NewWorld()
	sched, err := schedule.NewScheduler(world)
	require.NoError(t, err)

	var ran int
	registry := config.SystemRegistry{"tick": noopSystem{name: "tick", ran: &ran}}

	handles, err := config.Apply(sched, doc, registry)
	require.NoError(t, err)
	require.Contains(t, handles, ecs.ScheduleID("main"))

	require.NoError(t, sched.Tick(context.Background(), time.Millisecond))
	require.Equal(t, 1, ran)
}

func TestApplyUnknownSystemNameFails(t *testing.T) {
	doc, err := config.Load([]byte(manifest))
	require.NoError(t, err)

	world := ecs.NewWorld()
	sched, err := schedule.NewScheduler(world)
	require.NoError(t, err)

	_, err = config.Apply(sched, doc, config.SystemRegistry{})
	require.Error(t, err)
}

func TestApplyUnknownStageFails(t *testing.T) {
	doc, err := config.Load([]byte(`
schedules:
  - id: bad
    stage: nowhere
    systems: []
`))
	require.NoError(t, err)

	world := ecs.NewWorld()
	sched, err := schedule.NewScheduler(world)
	require.NoError(t, err)

	_, err = config.Apply(sched, doc, config.SystemRegistry{})
	require.Error(t, err)
}

func TestApplyUnknownErrorPolicyFails(t *testing.T) {
	doc, err := config.Load([]byte(`
schedules:
  - id: bad
    stage: main
    errorPolicy: explode
    systems: []
`))
	require.NoError(t, err)

	world := ecs.NewWorld()
	sched, err := schedule.NewScheduler(world)
	require.NoError(t, err)

	_, err = config.Apply(sched, doc, config.SystemRegistry{})
	require.Error(t, err)
}

func TestApplyNilDocumentFails(t *testing.T) {
	world := ecs.NewWorld()
	sched, err := schedule.NewScheduler(world)
	require.NoError(t, err)

	_, err = config.Apply(sched, nil, config.SystemRegistry{})
	require.Error(t, err)
}
