// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/fieldmesh/config"
	"github.com/luxfi/fieldmesh/hal/simhal"
	"github.com/luxfi/fieldmesh/module"
	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

func benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tick-loop throughput for a module population",
		Long: `Run a fixed number of tick rounds over a simulated module population
and report wall-clock throughput, useful for sizing a deployment's
tick period against the host's actual per-tick cost.`,
		RunE: runBench,
	}

	cmd.Flags().Int("modules", 32, "number of modules to simulate")
	cmd.Flags().Int("rounds", 500, "number of tick rounds to run")
	cmd.Flags().String("profile", string(config.ProfileCluster), "configuration profile")

	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	numModules, _ := cmd.Flags().GetInt("modules")
	rounds, _ := cmd.Flags().GetInt("rounds")
	profile, _ := cmd.Flags().GetString("profile")

	if numModules < 1 || numModules > 254 {
		return fmt.Errorf("modules must be between 1 and 254, got %d", numModules)
	}

	cfg, err := config.NewBuilder().FromProfile(config.Profile(profile)).Build()
	if err != nil {
		return fmt.Errorf("invalid profile %q: %w", profile, err)
	}

	bus := simhal.NewBus()
	mods := make([]*module.Module, 0, numModules)
	for i := 0; i < numModules; i++ {
		id := wire.ModuleID(i + 1)
		h := bus.Join(id)
		pos := topology.Position{X: int16(i), Y: 0, Z: 0}
		mc := cfg.ToModuleConfig(id, pos, 0, topology.MetricLogical, nil)
		mods = append(mods, module.New(mc, h, module.Callbacks{}, module.Deps{}))
	}

	periodUS := uint64(cfg.HeartbeatPeriod.Microseconds())
	if periodUS == 0 {
		periodUS = 1000
	}

	fmt.Printf("=== fieldmesh bench ===\n")
	fmt.Printf("Modules:  %d\n", numModules)
	fmt.Printf("Rounds:   %d\n", rounds)
	fmt.Printf("Profile:  %s\n", profile)
	fmt.Printf("CPUs:     %d\n\n", runtime.NumCPU())

	start := time.Now()
	now := uint64(0)
	for r := 0; r < rounds; r++ {
		now += periodUS
		bus.Advance(now)
		for _, m := range mods {
			_ = m.Tick(now)
		}
	}
	elapsed := time.Since(start)

	totalTicks := rounds * numModules
	fmt.Printf("Total ticks:       %d\n", totalTicks)
	fmt.Printf("Wall time:         %v\n", elapsed)
	fmt.Printf("Ticks/second:      %.0f\n", float64(totalTicks)/elapsed.Seconds())
	fmt.Printf("Avg tick latency:  %v\n", elapsed/time.Duration(totalTicks))
	fmt.Printf("Messages dropped:  %d\n", bus.Dropped())
	return nil
}
