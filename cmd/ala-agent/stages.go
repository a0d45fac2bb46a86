// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ala-agent/internal/failure"
	"github.com/pdiddy/ala-agent/pkg/types"
)

// --- extract subcommand ---

var extractCmd = &cobra.Command{
	Use:   "extract [question]",
	Short: "Extract search parameters from a question",
	Long: `Extract sends the question to the language model and prints the
structured parameters it returns, without resolving species or calling
any ALA service.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	c, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ex, err := c.extractor(logger)
	if err != nil {
		return err
	}
	q, err := ex.Extract(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return writeJSON(q)
}

// --- resolve subcommand ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Resolve a species name or LSID to its taxon record",
	Long: `Resolve looks up a scientific name, common name, or LSID through the
name cache and the ALA name-matching service.

Examples:
  ala-agent resolve koala
  ala-agent resolve "Phascolarctos cinereus"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	ctx := cmdContext(cmd)
	c, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	name := strings.Join(args, " ")
	rec, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		if failure.Is(err, failure.KindResolution) {
			return fmt.Errorf("no taxon matches %q", name)
		}
		return err
	}
	if jsonOut {
		return writeJSON(rec)
	}
	printRecord(os.Stdout, rec)
	return nil
}

func printRecord(w io.Writer, r types.NameResolutionRecord) {
	rows := []struct{ k, v string }{
		{"Scientific name", r.ScientificName},
		{"Common name", r.CommonName},
		{"LSID", r.LSID},
		{"Rank", r.Rank},
		{"Kingdom", r.Kingdom},
		{"Family", r.Family},
		{"Genus", r.Genus},
		{"Match", string(r.MatchType)},
	}
	for _, row := range rows {
		if row.v != "" {
			fmt.Fprintf(w, "%-16s %s\n", row.k+":", row.v)
		}
	}
}

// --- plan subcommand ---

var planCmd = &cobra.Command{
	Use:   "plan [question]",
	Short: "Show the execution plan for a question",
	Long: `Plan runs the configured planner and prints the tools it would call,
in order, with their priority. No tool is invoked.

Species and parameters can be supplied directly; otherwise the planner
sees only the question text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	species, _ := cmd.Flags().GetStringSlice("species")
	rawParams, _ := cmd.Flags().GetString("params")

	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	c, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.planner.Plan(ctx, strings.Join(args, " "), species, params)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(p)
	}
	printPlan(os.Stdout, p)
	return nil
}

func printPlan(w io.Writer, p *types.ExecutionPlan) {
	fmt.Fprintf(w, "Query type: %s\n", p.QueryType)
	if len(p.SpeciesMentioned) > 0 {
		fmt.Fprintf(w, "Species:    %s\n", strings.Join(p.SpeciesMentioned, ", "))
	}
	if p.Fallback {
		fmt.Fprintln(w, "Fallback:   yes")
	}
	if len(p.Entries) == 0 {
		fmt.Fprintln(w, "No tools planned.")
		return
	}
	fmt.Fprintf(w, "\n%-3s %-28s %-10s %s\n", "#", "TOOL", "PRIORITY", "REASON")
	for i, e := range p.Entries {
		fmt.Fprintf(w, "%-3d %-28s %-10s %s\n", i+1, e.ToolName, e.Priority, e.Reason)
	}
}

// --- shared helpers ---

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseParams(raw string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("parsing --params: %w", err)
	}
	return params, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	resolveCmd.Flags().Bool("json", false, "print the record as JSON")

	planCmd.Flags().Bool("json", false, "print the plan as JSON")
	planCmd.Flags().StringSlice("species", nil, "species mentioned in the question")
	planCmd.Flags().String("params", "", "extracted parameters as a JSON object")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(planCmd)
}
