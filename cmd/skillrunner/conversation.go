package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/conversations"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/jingkaihe/skillrunner/pkg/tools/renderers"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ConversationListConfig holds configuration for the conversation list command
type ConversationListConfig struct {
	StartDate  string
	EndDate    string
	Search     string
	Limit      int
	Offset     int
	SortOrder  string
	JSONOutput bool
}

// NewConversationListConfig creates a new ConversationListConfig with default values
func NewConversationListConfig() *ConversationListConfig {
	return &ConversationListConfig{
		StartDate:  "",
		EndDate:    "",
		Search:     "",
		Limit:      0,
		Offset:     0,
		SortOrder:  "desc",
		JSONOutput: false,
	}
}

// ConversationDeleteConfig holds configuration for the conversation delete command
type ConversationDeleteConfig struct {
	NoConfirm bool
}

// NewConversationDeleteConfig creates a new ConversationDeleteConfig with default values
func NewConversationDeleteConfig() *ConversationDeleteConfig {
	return &ConversationDeleteConfig{
		NoConfirm: false,
	}
}

// ConversationShowConfig holds configuration for the conversation show command
type ConversationShowConfig struct {
	Format string
}

// NewConversationShowConfig creates a new ConversationShowConfig with default values
func NewConversationShowConfig() *ConversationShowConfig {
	return &ConversationShowConfig{
		Format: "text",
	}
}

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Manage saved conversations",
	Long:  `List, view, and delete saved conversations.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var conversationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	Run: func(cmd *cobra.Command, _ []string) {
		config := getConversationListConfigFromFlags(cmd)
		if err := withStore(cmd.Context(), func(store conversations.Store) error {
			return listConversations(cmd.Context(), os.Stdout, store, config)
		}); err != nil {
			presenter.Error(err, "Failed to list conversations")
			os.Exit(1)
		}
	},
}

var conversationShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a saved conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConversationShowConfigFromFlags(cmd)
		if err := withStore(cmd.Context(), func(store conversations.Store) error {
			return showConversation(cmd.Context(), os.Stdout, store, args[0], config)
		}); err != nil {
			presenter.Error(err, "Failed to show conversation")
			os.Exit(1)
		}
	},
}

var conversationDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConversationDeleteConfigFromFlags(cmd)
		if err := withStore(cmd.Context(), func(store conversations.Store) error {
			return deleteConversation(cmd.Context(), presenter.New(), store, args[0], config)
		}); err != nil {
			presenter.Error(err, "Failed to delete conversation")
			os.Exit(1)
		}
	},
}

func init() {
	listDefaults := NewConversationListConfig()
	conversationListCmd.Flags().String("start", listDefaults.StartDate, "Only conversations updated on or after this date (YYYY-MM-DD)")
	conversationListCmd.Flags().String("end", listDefaults.EndDate, "Only conversations updated on or before this date (YYYY-MM-DD)")
	conversationListCmd.Flags().String("search", listDefaults.Search, "Search term matched against the first message")
	conversationListCmd.Flags().Int("limit", listDefaults.Limit, "Maximum number of conversations to show (0 for all)")
	conversationListCmd.Flags().Int("offset", listDefaults.Offset, "Number of conversations to skip")
	conversationListCmd.Flags().String("sort-order", listDefaults.SortOrder, "Sort order by last update (asc or desc)")
	conversationListCmd.Flags().Bool("json", listDefaults.JSONOutput, "Output in JSON format")

	showDefaults := NewConversationShowConfig()
	conversationShowCmd.Flags().String("format", showDefaults.Format, "Output format: text or json")

	deleteDefaults := NewConversationDeleteConfig()
	conversationDeleteCmd.Flags().Bool("no-confirm", deleteDefaults.NoConfirm, "Skip confirmation prompt")

	conversationCmd.AddCommand(conversationListCmd)
	conversationCmd.AddCommand(conversationShowCmd)
	conversationCmd.AddCommand(conversationDeleteCmd)
}

func getConversationListConfigFromFlags(cmd *cobra.Command) *ConversationListConfig {
	config := NewConversationListConfig()
	if startDate, err := cmd.Flags().GetString("start"); err == nil {
		config.StartDate = startDate
	}
	if endDate, err := cmd.Flags().GetString("end"); err == nil {
		config.EndDate = endDate
	}
	if search, err := cmd.Flags().GetString("search"); err == nil {
		config.Search = search
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if offset, err := cmd.Flags().GetInt("offset"); err == nil {
		config.Offset = offset
	}
	if sortOrder, err := cmd.Flags().GetString("sort-order"); err == nil {
		config.SortOrder = sortOrder
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	return config
}

func getConversationShowConfigFromFlags(cmd *cobra.Command) *ConversationShowConfig {
	config := NewConversationShowConfig()
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	return config
}

func getConversationDeleteConfigFromFlags(cmd *cobra.Command) *ConversationDeleteConfig {
	config := NewConversationDeleteConfig()
	if noConfirm, err := cmd.Flags().GetBool("no-confirm"); err == nil {
		config.NoConfirm = noConfirm
	}
	return config
}

func withStore(ctx context.Context, f func(conversations.Store) error) error {
	store, err := conversations.NewDefaultSQLiteStore(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to initialize conversation store")
	}
	defer store.Close()
	return f(store)
}

func buildQueryOptions(config *ConversationListConfig) (conversations.QueryOptions, error) {
	options := conversations.QueryOptions{
		SearchTerm: config.Search,
		Limit:      config.Limit,
		Offset:     config.Offset,
		SortOrder:  config.SortOrder,
	}

	if config.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", config.StartDate)
		if err != nil {
			return options, errors.Wrap(err, "invalid start date, use YYYY-MM-DD")
		}
		options.StartDate = &startDate
	}
	if config.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", config.EndDate)
		if err != nil {
			return options, errors.Wrap(err, "invalid end date, use YYYY-MM-DD")
		}
		// Set to end of day
		endDate = endDate.Add(24*time.Hour - time.Second)
		options.EndDate = &endDate
	}
	return options, nil
}

func listConversations(ctx context.Context, w io.Writer, store conversations.Store, config *ConversationListConfig) error {
	options, err := buildQueryOptions(config)
	if err != nil {
		return err
	}

	result, err := store.Query(ctx, options)
	if err != nil {
		return err
	}

	if config.JSONOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"conversations": result.Summaries,
			"total":         result.Total,
		})
	}

	if len(result.Summaries) == 0 {
		fmt.Fprintln(w, "No conversations found matching your criteria.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tMODEL\tMESSAGES\tFIRST MESSAGE")
	for _, s := range result.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.Model, s.MessageCount, truncate(s.FirstMessage, maxListDescription))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if result.Total > len(result.Summaries) {
		fmt.Fprintf(w, "\nShowing %d of %d conversations\n", len(result.Summaries), result.Total)
	}
	return nil
}

func showConversation(ctx context.Context, w io.Writer, store conversations.Store, id string, config *ConversationShowConfig) error {
	record, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	switch config.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(record.Messages)
	case "text":
		displayConversation(w, record)
		return nil
	default:
		return errors.Errorf("unsupported format %q, use text or json", config.Format)
	}
}

// displayConversation renders the messages in a readable text format. Tool
// observations are rendered from their structured results when available.
func displayConversation(w io.Writer, record conversations.Record) {
	rendererRegistry := renderers.NewRendererRegistry()

	for i, msg := range record.Messages {
		if i > 0 {
			fmt.Fprintln(w, strings.Repeat("-", bannerWidth))
		}

		switch msg.Role {
		case llmtypes.RoleUser:
			fmt.Fprintf(w, "You: %s\n", msg.Content)
		case llmtypes.RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(w, "Assistant: %s\n", msg.Content)
			}
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(w, "Tool call %s: %s\n", call.Name, call.Arguments)
			}
		case llmtypes.RoleTool:
			if result, ok := record.ToolResults[msg.ToolCallID]; ok {
				fmt.Fprintf(w, "Tool result:\n%s\n", rendererRegistry.Render(result))
				continue
			}
			fmt.Fprintf(w, "Tool result (%s):\n%s\n", msg.ToolName, msg.Content)
		default:
			fmt.Fprintf(w, "%s: %s\n", msg.Role, msg.Content)
		}
	}
}

func deleteConversation(ctx context.Context, p presenter.Presenter, store conversations.Store, id string, config *ConversationDeleteConfig) error {
	if !config.NoConfirm {
		response, err := p.ReadLine(fmt.Sprintf("Are you sure you want to delete conversation %s? (y/N): ", id))
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(response), "y") {
			p.Info("Deletion cancelled.")
			return nil
		}
	}

	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Conversation %s deleted successfully", id))
	return nil
}
