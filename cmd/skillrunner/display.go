package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/skills"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
)

const bannerWidth = 70

// printSkills writes the startup skill listing.
func printSkills(w io.Writer, registry *skills.Registry, skillsDir string) {
	if registry.Len() == 0 {
		fmt.Fprintf(w, "\nWarning: No skills found in %s directory\n\n", skillsDir)
		return
	}

	fmt.Fprintln(w, "Available Skills:")
	for _, s := range registry.Skills() {
		fmt.Fprintf(w, "  - %s\n", s.Name)
		fmt.Fprintf(w, "    %s\n", s.Description)
	}
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", bannerWidth))
}

// printTools writes every tool with its arguments as declared in its input
// schema.
func printTools(w io.Writer, tools []tooltypes.Tool) {
	fmt.Fprintln(w, "Available Tools:")
	for _, t := range tools {
		fmt.Fprintf(w, "  - Name: %s\n", t.Name())
		fmt.Fprintf(w, "    Description: %s\n", t.Description())

		schema := t.GenerateSchema()
		if schema != nil && schema.Properties != nil && schema.Properties.Len() > 0 {
			fmt.Fprintln(w, "    Arguments:")
			for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
				argType := pair.Value.Type
				if argType == "" {
					argType = "unknown"
				}
				fmt.Fprintf(w, "      - %s (%s): %s\n", pair.Key, argType, pair.Value.Description)
			}
		}
		fmt.Fprintln(w)
	}
}
