package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/spf13/cobra"
)

// ExecConfig holds configuration for the exec command
type ExecConfig struct {
	TimeoutSeconds int
}

// NewExecConfig creates a new ExecConfig with default values
func NewExecConfig() *ExecConfig {
	return &ExecConfig{
		TimeoutSeconds: 0,
	}
}

var execCmd = &cobra.Command{
	Use:   "exec <command-path> [args...]",
	Short: "Run a command through the dispatcher the model uses",
	Long: `Run a command or script exactly as the execute_command tool would and print the
observation the model would receive. Flags after the command path are passed to it.

Examples:
  skillrunner exec ls -la
  skillrunner exec SKILLS/schedule-table-export/scripts/export_schedule.sh today --format csv`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getExecConfigFromFlags(cmd)
		if err := execCommand(cmd.Context(), os.Stdout, config, dispatch.Request{Path: args[0], Args: args[1:]}); err != nil {
			presenter.Error(err, "Failed to execute command")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewExecConfig()
	execCmd.Flags().Int("timeout", defaults.TimeoutSeconds, "Timeout in seconds (default: execute.timeout)")
	execCmd.Flags().SetInterspersed(false)
}

func getExecConfigFromFlags(cmd *cobra.Command) *ExecConfig {
	config := NewExecConfig()
	if timeout, err := cmd.Flags().GetInt("timeout"); err == nil {
		config.TimeoutSeconds = timeout
	}
	return config
}

func execCommand(ctx context.Context, w io.Writer, config *ExecConfig, req dispatch.Request) error {
	appConfig, err := loadAppConfig()
	if err != nil {
		return err
	}
	opts := appConfig.Dispatch
	if config.TimeoutSeconds > 0 {
		opts.Timeout = durationFlagSeconds(config.TimeoutSeconds)
	}

	d, err := dispatch.New(opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, d.Execute(ctx, req))
	return err
}
