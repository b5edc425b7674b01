package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/recallware/recall-go/memory"
)

// DefaultInstructions is the instruction block used when the caller
// provides none.
const DefaultInstructions = "You are a helpful assistant with access to user memory. " +
	"Use the memory to provide personalized answers. Be concise but polite."

const memoryHeader = "User memory (most relevant first):"

// ComposePrompt assembles the bounded prompt sent to the completion
// backend: instructions, the memory block (when any memories were
// retrieved, already ranked most-relevant first), the user utterance, and
// the "Assistant:" generation cue.
//
// No truncation happens here: K bounds how many memories appear, nothing
// bounds their total size.
func ComposePrompt(userText string, memories []*memory.Record, instructions string) string {
	if instructions == "" {
		instructions = DefaultInstructions
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if len(memories) > 0 {
		b.WriteString(memoryHeader)
		b.WriteString("\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- [%s | %s] %s\n", m.Role, m.Timestamp.Format(time.RFC3339), m.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", userText)
	return b.String()
}
