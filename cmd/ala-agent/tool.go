// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ala-agent/internal/tools"
)

var toolCmd = &cobra.Command{
	Use:   "tool [name]",
	Short: "Invoke one ALA tool with explicit parameters",
	Long: `Tool calls a single adapter from the registry, bypassing extraction and
planning. Parameters use the same keys the extractor produces.

Examples:
  ala-agent tool get_occurrence_taxa_count --params '{"lsid": "urn:lsid:...", "fq": ["state:Queensland"]}'
  ala-agent tool get_species_info --params '{"scientificName": "Phascolarctos cinereus"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runTool,
}

func runTool(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
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

	t, ok := c.registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown tool %q (see 'ala-agent tools')", args[0])
	}

	logger.Debug("invoking tool", "tool", t.Name(), "params", sortedKeys(params))
	rec := tools.NewRecorder(os.Stderr)
	if jsonOut {
		rec = tools.NewRecorder(nil)
	}
	out := t.Invoke(ctx, params, rec)

	if jsonOut {
		return writeJSON(struct {
			Outcome   any `json:"outcome"`
			Artifacts any `json:"artifacts,omitempty"`
		}{out, rec.Artifacts()})
	}
	fmt.Println(out.Message)
	for _, a := range rec.Artifacts() {
		fmt.Printf("\n[%s] %s\n", a.MimeType, a.Description)
		for _, u := range a.URIs {
			fmt.Printf("  %s\n", u)
		}
	}
	if !out.Success {
		return fmt.Errorf("%s failed", t.Name())
	}
	return nil
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered ALA tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := tools.Default(nil, "")
		for _, name := range registry.Names() {
			t, _ := registry.Lookup(name)
			fmt.Printf("%-28s %s\n", name, t.Description())
		}
		return nil
	},
}

func init() {
	toolCmd.Flags().String("params", "", "tool parameters as a JSON object")
	toolCmd.Flags().Bool("json", false, "print the outcome as JSON")

	rootCmd.AddCommand(toolCmd)
	rootCmd.AddCommand(toolsCmd)
}
