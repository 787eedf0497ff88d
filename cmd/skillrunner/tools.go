package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show the tools exposed to the model",
	Long:  `Show the tools exposed to the model with their descriptions and arguments.`,
	Run: func(cmd *cobra.Command, _ []string) {
		schemas, _ := cmd.Flags().GetBool("schema")
		if err := showTools(cmd.Context(), os.Stdout, schemas); err != nil {
			presenter.Error(err, "Failed to show tools")
			os.Exit(1)
		}
	},
}

func init() {
	toolsCmd.Flags().Bool("schema", false, "Print the JSON input schema of each tool instead")
}

func showTools(ctx context.Context, w io.Writer, schemas bool) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	if !schemas {
		printTools(w, a.tools.Tools())
		return nil
	}

	out := make(map[string]any, len(a.tools.Tools()))
	for _, t := range a.tools.Tools() {
		out[t.Name()] = t.GenerateSchema()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
