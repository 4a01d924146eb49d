// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// requireList guards commands that need --list.
func requireList() error {
	if listID == "" {
		return fmt.Errorf("--list is required (create one with \"rankctl new\")")
	}
	return nil
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Mint a fresh list id",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := newClient(serverURL).createList()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server liveness and persistence mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient(serverURL).health()
		if err != nil {
			return err
		}
		fmt.Printf("status: %s\ndb_connected: %v\nmemory_mode: %v\n",
			h.Status, h.DBConnected, h.MemoryMode)
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks of a list in insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireList(); err != nil {
			return err
		}
		tasks, err := newClient(serverURL).tasks(listID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, t.Content)
		}
		return nil
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Show the current ranking with scores and uncertainty",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireList(); err != nil {
			return err
		}
		resp, err := newClient(serverURL).rankings(listID)
		if err != nil {
			return err
		}
		for _, r := range resp.Rankings {
			fmt.Printf("%3d. %-50s score=%+.3f  ci=[%+.3f, %+.3f]  n=%d\n",
				r.Rank, r.Content, r.Score,
				r.ConfidenceInterval[0], r.ConfidenceInterval[1],
				r.ComparisonsCount)
		}
		s := resp.Stats
		fmt.Printf("\ncoverage: %.0f%% (%d/%d pairs)  convergence: %.0f%%\n",
			s.Coverage*100, s.UniquePairs, s.PossiblePairs, s.Convergence*100)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <content>",
	Short: "Delete a task and every comparison referencing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireList(); err != nil {
			return err
		}
		return newClient(serverURL).deleteTask(listID, args[0])
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Interactively answer the most informative comparisons",
	Long: `compare repeatedly fetches the pair whose answer teaches the
ranking the most, asks which task matters more, and submits the
judgement. Press q to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireList(); err != nil {
			return err
		}
		client := newClient(serverURL)
		reader := bufio.NewReader(os.Stdin)

		for {
			resp, err := client.rankings(listID)
			if err != nil {
				return err
			}
			pair := resp.Stats.OptimalNextPair
			if pair == nil {
				fmt.Println("Need at least two tasks before comparing.")
				return nil
			}

			fmt.Printf("\n1: %s\n2: %s\n", pair[0], pair[1])
			fmt.Print("Which is more important? (1/2/q): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			switch strings.TrimSpace(line) {
			case "1":
				err = client.addComparison(listID, pair[0], pair[1], pair[0])
			case "2":
				err = client.addComparison(listID, pair[0], pair[1], pair[1])
			case "q", "Q":
				return nil
			default:
				continue
			}
			if err != nil {
				return err
			}
		}
	},
}
