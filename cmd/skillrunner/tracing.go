package main

import (
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("skillrunner.cli")

// sensitiveFlags are never recorded as span attributes.
var sensitiveFlags = map[string]bool{
	"api-key": true,
	"token":   true,
}

// startCommandSpan starts the span covering a whole command run and stores
// its context on cmd. The returned span must be ended by the caller.
func startCommandSpan(cmd *cobra.Command, args []string) trace.Span {
	ctx, span := tracer.Start(cmd.Context(), "cli.command",
		trace.WithAttributes(commandAttributes(cmd, args)...))
	cmd.SetContext(ctx)
	return span
}

func commandAttributes(cmd *cobra.Command, args []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("command.name", cmd.Name()),
		attribute.String("command.path", cmd.CommandPath()),
		attribute.Int("args.count", len(args)),
	}
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		if !sensitiveFlags[flag.Name] {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		}
	})
	return attrs
}
