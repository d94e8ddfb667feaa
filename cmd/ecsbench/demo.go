package main

import (
	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/config"
	"github.com/forgecraft/ecsruntime/ecs/storage"
	"github.com/forgecraft/ecsruntime/examples/game"
)

// buildDemoWorld registers the stats/position components and spawns a small
// cast of entities (player, a few zombies, a skeleton, a miner, a boss) so
// the demo schedule has something to chew on every tick.
func buildDemoWorld() (*ecs.World, error) {
	world := ecs.NewWorld()

	if err := ecs.RegisterComponent[game.BaseStats](world, storage.NewSharedStrategy()); err != nil {
		return nil, err
	}
	if err := ecs.RegisterComponent[game.CurrentStats](world, storage.NewSparseStrategy()); err != nil {
		return nil, err
	}
	if err := ecs.RegisterComponent[game.StatModifiers](world, storage.NewSparseStrategy()); err != nil {
		return nil, err
	}
	if err := ecs.RegisterComponent[game.Position](world, storage.NewSparseStrategy()); err != nil {
		return nil, err
	}

	type spawn struct {
		base game.BaseStats
		pos  game.Position
	}
	cast := []spawn{
		{game.PlayerBaseStats, game.Position{X: 0, Y: 0}},
		{game.ZombieBaseStats, game.Position{X: 2, Y: 1}},
		{game.ZombieBaseStats, game.Position{X: -3, Y: 4}},
		{game.SkeletonBaseStats, game.Position{X: 5, Y: -2}},
		{game.MinerBaseStats, game.Position{X: -10, Y: -10}},
		{game.BossBaseStats, game.Position{X: 1, Y: 1}},
	}

	cmds := ecs.NewCommandBuffer()
	ids := make([]ecs.EntityID, len(cast))
	for i := range cast {
		cmds.Push(ecs.NewCreateEntityCommand(&ids[i]))
	}
	if err := world.ApplyCommands(cmds.Drain()); err != nil {
		return nil, err
	}

	cmds = ecs.NewCommandBuffer()
	for i, c := range cast {
		cmds.Push(ecs.AddComponent[game.BaseStats](ids[i], c.base))
		cmds.Push(ecs.AddComponent[game.CurrentStats](ids[i], game.CurrentStats{CurrentHealth: c.base.MaxHealth}))
		cmds.Push(ecs.AddComponent[game.Position](ids[i], c.pos))
	}
	if err := world.ApplyCommands(cmds.Drain()); err != nil {
		return nil, err
	}

	return world, nil
}

// demoRegistry maps the system names used by the built-in manifest (and any
// user-supplied one) to live system instances.
func demoRegistry() config.SystemRegistry {
	return config.SystemRegistry{
		"health":           game.HealthSystem{},
		"combat":           game.CombatSystem{},
		"modifier_cleanup": game.ModifierCleanupSystem{},
		"stats_display":    game.StatsDisplaySystem{},
	}
}

// defaultManifest is used when the operator doesn't pass --config: one
// main-stage schedule running every registered demo system.
const defaultManifest = `
instrumentation:
  structuredLogging: true
  loggingFormat: json
schedules:
  - id: gameplay
    stage: main
    systems:
      - health
      - combat
      - modifier_cleanup
      - stats_display
`
