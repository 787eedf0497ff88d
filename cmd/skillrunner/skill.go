package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/jingkaihe/skillrunner/pkg/skills"
	"github.com/jingkaihe/skillrunner/pkg/tools"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const maxListDescription = 60

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect skills",
	Long:  `List, show and watch the skills found in the skills directory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	Long:  `List discovered skills with their names, directories and descriptions.`,
	Run: func(cmd *cobra.Command, _ []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := listSkills(cmd.Context(), os.Stdout, jsonOutput); err != nil {
			presenter.Error(err, "Failed to list skills")
			os.Exit(1)
		}
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill as the model sees it when loading it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := showSkill(cmd.Context(), os.Stdout, args[0]); err != nil {
			presenter.Error(err, "Failed to show skill")
			os.Exit(1)
		}
	},
}

var skillWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the skills directory and report changes",
	Long: `Watch the skills directory and rediscover skills whenever a file changes.
Runs until interrupted with Ctrl+C.`,
	Run: func(cmd *cobra.Command, _ []string) {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		if err := watchSkills(cmd.Context(), os.Stdout, debounce); err != nil {
			presenter.Error(err, "Failed to watch skills")
			os.Exit(1)
		}
	},
}

func init() {
	skillListCmd.Flags().Bool("json", false, "Output in JSON format")
	skillWatchCmd.Flags().Duration("debounce", skills.DefaultDebounce, "Wait this long for changes to settle before reloading")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillWatchCmd)
}

type skillListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Directory   string   `json:"directory"`
	Scripts     []string `json:"scripts,omitempty"`
}

func listSkills(ctx context.Context, w io.Writer, jsonOutput bool) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	for _, warning := range skillWarnings(a.skills) {
		presenter.Warning(warning)
	}

	listings := make([]skillListing, 0, a.skills.Len())
	for _, s := range a.skills.Skills() {
		listings = append(listings, skillListing{
			Name:        s.Name,
			Description: s.Description,
			Directory:   s.Directory,
			Scripts:     s.Scripts,
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	if len(listings) == 0 {
		fmt.Fprintf(w, "No skills found in %s\n", a.config.SkillsDir)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, l.Directory, truncate(l.Description, maxListDescription))
	}
	return tw.Flush()
}

func showSkill(ctx context.Context, w io.Writer, name string) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	result := tools.NewLoadSkillTool(a.skills, a.config.SkillsDisplayDir).Load(name)
	if result.IsError() {
		return errors.New(result.GetError())
	}
	_, err = fmt.Fprintln(w, result.AssistantFacing())
	return err
}

func watchSkills(ctx context.Context, w io.Writer, debounce time.Duration) error {
	config, err := loadAppConfig()
	if err != nil {
		return err
	}

	var opts []skills.Option
	if len(config.SkillsAllowed) > 0 {
		opts = append(opts, skills.WithAllowlist(config.SkillsAllowed...))
	}
	if config.StrictNames {
		opts = append(opts, skills.WithStrictNames())
	}

	initial, err := skills.Discover(ctx, config.SkillsDir, opts...)
	if err != nil {
		return err
	}
	printSkills(w, initial, config.SkillsDisplayDir)
	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", config.SkillsDir))

	return skills.Watch(ctx, config.SkillsDir, debounce, func(reg *skills.Registry, err error) {
		if err != nil {
			presenter.Error(err, "Failed to reload skills")
			return
		}
		presenter.Success(fmt.Sprintf("Reloaded %d skill(s)", reg.Len()))
		for _, warning := range skillWarnings(reg) {
			presenter.Warning(warning)
		}
		printSkills(w, reg, config.SkillsDisplayDir)
	}, opts...)
}

// skillWarnings flattens the registry's discovery warnings.
func skillWarnings(reg *skills.Registry) []string {
	err := reg.Warnings()
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
