// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ala-agent/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a biodiversity question",
	Long: `Ask runs the whole pipeline for one question: parameter extraction,
species resolution, planning, and tool execution. Progress lines are
written to stderr as tools run; the reply is written to stdout.

Examples:
  ala-agent ask "How many koala records are there in Queensland?"
  ala-agent ask --json "Show kangaroo records by state"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	showPlan, _ := cmd.Flags().GetBool("plan")

	ctx := cmdContext(cmd)
	c, err := wire(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	var progress io.Writer = os.Stderr
	if quiet || jsonOut {
		progress = nil
	}
	a, err := c.agent(progress, logger)
	if err != nil {
		return err
	}

	reply, err := a.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	printReply(os.Stdout, reply, showPlan)
	if !reply.Success {
		return fmt.Errorf("request %s did not complete", reply.RequestID)
	}
	return nil
}

func printReply(w io.Writer, r *types.Reply, showPlan bool) {
	if showPlan && r.Plan != nil {
		printPlan(w, r.Plan)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, r.Text)
	for _, a := range r.Artifacts {
		fmt.Fprintf(w, "\n[%s] %s\n", a.MimeType, a.Description)
		for _, u := range a.URIs {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}

func init() {
	askCmd.Flags().Bool("json", false, "print the full reply as JSON")
	askCmd.Flags().BoolP("quiet", "q", false, "suppress progress lines")
	askCmd.Flags().Bool("plan", false, "print the execution plan before the reply")

	rootCmd.AddCommand(askCmd)
}
