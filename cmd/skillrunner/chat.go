package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const replPrompt = "Enter your question (exit/quit/q to quit): "

// ChatConfig holds configuration for the chat command
type ChatConfig struct {
	Resume    string
	NoSave    bool
	HideTools bool
}

// NewChatConfig creates a new ChatConfig with default values
func NewChatConfig() *ChatConfig {
	return &ChatConfig{
		Resume:    "",
		NoSave:    false,
		HideTools: false,
	}
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session. The model can load skills and run commands.
Type exit, quit or q to leave.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getChatConfigFromFlags(cmd)
		if err := runChat(ctx, config); err != nil {
			presenter.Error(err, "chat failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewChatConfig()
	for _, c := range []*cobra.Command{chatCmd, rootCmd} {
		c.Flags().String("resume", defaults.Resume, "Resume a saved conversation by ID")
		c.Flags().Bool("no-save", defaults.NoSave, "Do not save the conversation")
		c.Flags().Bool("hide-tools", defaults.HideTools, "Do not print the available tools on startup")
	}
}

func getChatConfigFromFlags(cmd *cobra.Command) *ChatConfig {
	config := NewChatConfig()
	if resume, err := cmd.Flags().GetString("resume"); err == nil {
		config.Resume = resume
	}
	if noSave, err := cmd.Flags().GetBool("no-save"); err == nil {
		config.NoSave = noSave
	}
	if hideTools, err := cmd.Flags().GetBool("hide-tools"); err == nil {
		config.HideTools = hideTools
	}
	return config
}

func runChat(ctx context.Context, config *ChatConfig) error {
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

	out := os.Stdout
	printBanner(out, llmConfig)
	printSkills(out, a.skills, a.config.SkillsDisplayDir)
	if !config.HideTools {
		printTools(out, a.tools.Tools())
	}

	handler := &llmtypes.ConsoleMessageHandler{Out: out}
	if err := runREPL(ctx, presenter.New(), s, handler); err != nil {
		return err
	}

	if store != nil && len(s.record.Messages) > 0 {
		presenter.Info(fmt.Sprintf("Conversation saved as %s. Resume with: skillrunner chat --resume %s", s.ID(), s.ID()))
	}
	presenter.Stats(s.Usage())
	return nil
}

func printBanner(w io.Writer, config llmtypes.Config) {
	if config.BaseURL != "" {
		fmt.Fprintf(w, "Using %s: %s at %s\n", config.Provider, config.Model, config.BaseURL)
		return
	}
	fmt.Fprintf(w, "Using %s: %s\n", config.Provider, config.Model)
}

// isExitCommand reports whether input ends the session.
func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// runREPL reads questions until an exit command, end of input or
// cancellation. A failed turn is reported and the loop continues.
func runREPL(ctx context.Context, p presenter.Presenter, s *session, handler llmtypes.MessageHandler) error {
	for {
		if ctx.Err() != nil {
			p.Info("Exiting...")
			return nil
		}

		query, err := readLine(ctx, p, replPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				p.Info("\nExiting...")
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		}

		if isExitCommand(query) {
			p.Info("Exiting...")
			return nil
		}
		if strings.TrimSpace(query) == "" {
			continue
		}

		if err := s.Ask(ctx, query, handler); err != nil {
			if ctx.Err() != nil {
				p.Info("Exiting...")
				return nil
			}
			logger.G(ctx).WithError(err).Debug("turn failed")
			p.Error(err, "failed to answer")
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line from p, returning early with ctx.Err() when ctx is
// done. The pending read is abandoned; only one read is ever in flight
// because callers stop reading once ctx is done.
func readLine(ctx context.Context, p presenter.Presenter, prompt string) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.ReadLine(prompt)
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
