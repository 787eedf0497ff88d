package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/presenter"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunConfig holds configuration for the run command
type RunConfig struct {
	Resume   string
	NoSave   bool
	Headless bool
}

// NewRunConfig creates a new RunConfig with default values
func NewRunConfig() *RunConfig {
	return &RunConfig{
		Resume:   "",
		NoSave:   false,
		Headless: false,
	}
}

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Answer a single question and exit",
	Long: `Answer a single question non-interactively. The query is taken from the arguments,
or from standard input when no arguments are given.

Examples:
  skillrunner run "export today's schedule as csv"
  echo "what is the weather next week?" | skillrunner run --headless`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getRunConfigFromFlags(cmd)

		query, err := readQuery(args, cmd.InOrStdin())
		if err != nil {
			presenter.Error(err, "no query")
			os.Exit(1)
		}
		if err := runQuery(ctx, query, config); err != nil {
			presenter.Error(err, "run failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewRunConfig()
	runCmd.Flags().String("resume", defaults.Resume, "Continue a saved conversation by ID")
	runCmd.Flags().Bool("no-save", defaults.NoSave, "Do not save the conversation")
	runCmd.Flags().Bool("headless", defaults.Headless, "Print only the final answer")
}

func getRunConfigFromFlags(cmd *cobra.Command) *RunConfig {
	config := NewRunConfig()
	if resume, err := cmd.Flags().GetString("resume"); err == nil {
		config.Resume = resume
	}
	if noSave, err := cmd.Flags().GetBool("no-save"); err == nil {
		config.NoSave = noSave
	}
	if headless, err := cmd.Flags().GetBool("headless"); err == nil {
		config.Headless = headless
	}
	return config
}

func readQuery(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read query from standard input")
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", errors.New("provide a query as arguments or on standard input")
	}
	return query, nil
}

func runQuery(ctx context.Context, query string, config *RunConfig) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	provider, llmConfig, err := newProvider()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, a.config.Persist && !config.NoSave)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	s, err := newSession(ctx, a, provider, sessionOptions{
		maxIterations: llmConfig.MaxIterations,
		store:         store,
		resumeID:      config.Resume,
	})
	if err != nil {
		return err
	}

	if config.Headless {
		presenter.SetQuiet(true)
		collector := &llmtypes.StringCollectorHandler{}
		if err := s.Ask(ctx, query, collector); err != nil {
			return err
		}
		fmt.Print(collector.CollectedText())
		return nil
	}

	if err := s.Ask(ctx, query, &llmtypes.ConsoleMessageHandler{}); err != nil {
		return err
	}
	if store != nil {
		presenter.Info(fmt.Sprintf("Conversation ID: %s", s.ID()))
	}
	presenter.Stats(s.Usage())
	return nil
}
