// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/fieldmesh/config"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a mesh configuration profile",
		Long: `Load a named configuration profile, optionally overridden by flags,
and report whether it passes Verify().`,
		RunE: runCheck,
	}

	cmd.Flags().String("profile", string(config.ProfileEmbedded),
		fmt.Sprintf("configuration profile: %s", strings.Join(config.ProfileNames(), ", ")))
	cmd.Flags().Int("k", 0, "override k-neighbour set size (0 = use profile default)")
	cmd.Flags().Int("min-neighbors", 0, "override minimum neighbour floor (0 = use profile default)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	profile, _ := cmd.Flags().GetString("profile")
	k, _ := cmd.Flags().GetInt("k")
	minNeighbors, _ := cmd.Flags().GetInt("min-neighbors")

	b := config.NewBuilder().FromProfile(config.Profile(profile))
	if k > 0 {
		b = b.WithK(k)
	}
	if minNeighbors > 0 {
		b = b.WithMinNeighbors(minNeighbors)
	}

	cfg, err := b.Build()
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		return err
	}

	fmt.Printf("=== fieldmesh config check (%s) ===\n", profile)
	fmt.Printf("K:                  %d\n", cfg.K)
	fmt.Printf("MinNeighbors:       %d\n", cfg.MinNeighbors)
	fmt.Printf("HeartbeatPeriod:    %v\n", cfg.HeartbeatPeriod)
	fmt.Printf("SuspectThreshold:   %d missed beats\n", cfg.SuspectThreshold)
	fmt.Printf("TimeoutCount:       %d missed beats\n", cfg.TimeoutCount)
	fmt.Printf("DecayTau:           %.2fs\n", cfg.TauSeconds)
	fmt.Printf("FieldRange:         [%.1f, %.1f]\n", cfg.FieldMin, cfg.FieldMax)
	fmt.Printf("MaxBallots:         %d\n", cfg.MaxBallots)
	fmt.Printf("VoteTimeout:        %v\n", cfg.VoteTimeout)
	fmt.Println("VALID")
	return nil
}
