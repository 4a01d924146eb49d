// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// rankctl is a terminal client for the ranker service: list
// administration plus an interactive comparison loop that always asks
// the most informative question next.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	listID    string
)

var rootCmd = &cobra.Command{
	Use:   "rankctl",
	Short: "Client for the AleutianRank pairwise ranking service",
	Long: `rankctl talks to a running ranker server.

Most commands need a list id (--list). Create one with "rankctl new".
The list id is a bearer capability: anyone holding it can read and
mutate the list.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000",
		"base URL of the ranker server")
	rootCmd.PersistentFlags().StringVar(&listID, "list", "",
		"list id (bearer capability, at least 8 characters)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(deleteCmd)
}
