// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ala-agent/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect previously answered requests",
	Long: `History reads the request log kept in history.db under history.dir.
Every ask (from the CLI or the server) is recorded with its parameters,
plan, tool outcomes, and reply.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent requests, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOut, _ := cmd.Flags().GetBool("json")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmdContext(cmd), limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No requests recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-4s  %s\n", "ID", "TIME", "OK", "QUERY")
	for _, e := range entries {
		ok := "yes"
		if !e.Success {
			ok = "no"
		}
		fmt.Printf("%-36s  %-19s  %-4s  %s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), ok, truncate(e.Query, 60))
	}
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [request-id]",
	Short: "Show one request as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.ExportYAML(cmdContext(cmd), args[0], os.Stdout)
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("no request with ID %s", args[0])
	}
	return err
}

func openHistory() (*history.Store, error) {
	return history.NewStore(loadConfig().History)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of requests to list")
	historyListCmd.Flags().Bool("json", false, "print entries as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
