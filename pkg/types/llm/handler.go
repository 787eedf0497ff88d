package llm

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// StreamHandler receives model output while it is generated.
type StreamHandler interface {
	HandleTextDelta(delta string)
	HandleThinkingDelta(delta string)
}

// MessageHandler defines how message events should be processed
type MessageHandler interface {
	StreamHandler
	HandleText(text string)
	HandleToolUse(toolName string, input string)
	HandleToolResult(toolName string, result string)
	HandleDone()
}

// ConsoleMessageHandler streams the conversation to a writer, stdout by default.
type ConsoleMessageHandler struct {
	Silent bool
	Out    io.Writer

	streamed bool
}

func (h *ConsoleMessageHandler) out() io.Writer {
	if h.Out == nil {
		return os.Stdout
	}
	return h.Out
}

func (h *ConsoleMessageHandler) HandleTextDelta(delta string) {
	if h.Silent {
		return
	}
	h.streamed = true
	fmt.Fprint(h.out(), delta)
}

func (h *ConsoleMessageHandler) HandleThinkingDelta(string) {}

// HandleText ends a streamed block, or prints the whole text when nothing
// was streamed.
func (h *ConsoleMessageHandler) HandleText(text string) {
	if h.Silent {
		return
	}
	if h.streamed {
		h.streamed = false
		fmt.Fprint(h.out(), "\n\n")
		return
	}
	fmt.Fprintf(h.out(), "%s\n\n", text)
}

func (h *ConsoleMessageHandler) HandleToolUse(toolName string, input string) {
	if !h.Silent {
		fmt.Fprintf(h.out(), "🔧 Using tool: %s: %s\n\n", toolName, input)
	}
}

func (h *ConsoleMessageHandler) HandleToolResult(_ string, result string) {
	if !h.Silent {
		fmt.Fprintf(h.out(), "🔄 Tool result: %s\n\n", result)
	}
}

func (h *ConsoleMessageHandler) HandleDone() {}

// StringCollectorHandler collects text responses into a string
type StringCollectorHandler struct {
	text strings.Builder
}

func (h *StringCollectorHandler) HandleTextDelta(string) {}

func (h *StringCollectorHandler) HandleThinkingDelta(string) {}

func (h *StringCollectorHandler) HandleText(text string) {
	h.text.WriteString(text)
	h.text.WriteString("\n")
}

func (h *StringCollectorHandler) HandleToolUse(string, string) {}

func (h *StringCollectorHandler) HandleToolResult(string, string) {}

func (h *StringCollectorHandler) HandleDone() {}

// CollectedText returns every complete text block seen so far.
func (h *StringCollectorHandler) CollectedText() string {
	return h.text.String()
}
