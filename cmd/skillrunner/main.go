package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	"github.com/jingkaihe/skillrunner/pkg/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// legacyEnv maps configuration keys to the plain environment variable names
// that .env files for this tool have always used.
var legacyEnv = map[string]string{
	"provider": "LLM_PROVIDER",
	"model":    "MODEL_NAME",
	"base_url": "MODEL_BASE_URL",
}

var (
	tracingShutdown telemetry.ShutdownFunc
	commandSpan     trace.Span
)

var rootCmd = &cobra.Command{
	Use:   "skillrunner",
	Short: "Run a local agent that uses packaged skills",
	Long: `skillrunner lets a language model discover skills (SKILL.md instructions plus helper
scripts) and run commands on your behalf, in a streamed multi-turn conversation.

Running skillrunner without a subcommand starts the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}

		shutdown, err := telemetry.InitTracer(cmd.Context(), telemetry.ConfigFromViper(version.Get().Version))
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing, continuing without it")
			return nil
		}
		tracingShutdown = shutdown
		commandSpan = startCommandSpan(cmd, args)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		shutdownTracing(cmd.Context())
	},
	Run: func(cmd *cobra.Command, args []string) {
		chatCmd.Run(cmd, args)
	},
}

func init() {
	initConfig()

	rootCmd.PersistentFlags().String("provider", "", "LLM provider to use (ollama, openai or anthropic)")
	rootCmd.PersistentFlags().String("model", "", "LLM model to use (overrides config)")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL of the model API")
	rootCmd.PersistentFlags().String("project-root", "", "Project root for relative script paths (default: current directory)")
	rootCmd.PersistentFlags().String("skills-dir", "", "Skills directory, relative to the project root")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")

	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("project_root", rootCmd.PersistentFlags().Lookup("project-root"))
	_ = viper.BindPFlag("skills.dir", rootCmd.PersistentFlags().Lookup("skills-dir"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(conversationCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// .env in the working directory; a missing file is fine
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("SKILLRUNNER")
	viper.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = viper.BindEnv(key, "SKILLRUNNER_"+envKey(key), env)
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".skillrunner"))
	}
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

func shutdownTracing(ctx context.Context) {
	if commandSpan != nil {
		commandSpan.End()
		commandSpan = nil
	}
	if tracingShutdown == nil {
		return
	}
	if err := tracingShutdown(context.WithoutCancel(ctx)); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to shut down tracing")
	}
	tracingShutdown = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// a second interrupt terminates the process
	context.AfterFunc(ctx, stop)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "")
		shutdownTracing(ctx)
		os.Exit(1)
	}
}
