package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/router"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
)

func formatMessage(msg contractx.Message) string {
	switch msg.Kind {
	case contractx.KindToolRequest:
		return fmt.Sprintf("[%s] -> %s(%s)", msg.Speaker, msg.Tool, formatArgs(msg.Args))
	case contractx.KindToolResult:
		if msg.ErrorKind != "" {
			return fmt.Sprintf("[%s] <- %s failed (%s): %s", msg.Speaker, msg.Tool, msg.ErrorKind, msg.Content)
		}
		return fmt.Sprintf("[%s] <- %s: %s", msg.Speaker, msg.Tool, msg.Content)
	case contractx.KindHandoff:
		if strings.TrimSpace(msg.Content) == "" {
			return fmt.Sprintf("[%s] => %s", msg.Speaker, msg.Target)
		}
		return fmt.Sprintf("[%s] => %s: %s", msg.Speaker, msg.Target, msg.Content)
	case contractx.KindProtocolViolation:
		return fmt.Sprintf("[%s] !! %s", msg.Speaker, msg.Content)
	default:
		return fmt.Sprintf("[%s]: %s", msg.Speaker, msg.Content)
	}
}

func formatArgs(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := args[k]
		if r := []rune(v); len(r) > 80 {
			v = string(r[:80]) + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	return strings.Join(parts, ", ")
}

// transcriptPrinter streams messages as the router appends them. The user
// prompt is skipped since the composite prompt is internal.
func transcriptPrinter(w io.Writer) router.Observer {
	var mu sync.Mutex
	return func(_ string, msg contractx.Message) {
		if msg.Speaker == contractx.SpeakerUser {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, formatMessage(msg))
	}
}

func printResult(w io.Writer, res orchestrator.Result) {
	fmt.Fprintln(w)
	switch res.Outcome {
	case statex.OutcomeCapExceeded:
		fmt.Fprintf(w, "== stopped after %d turns without finishing ==\n", res.Turns)
	default:
		fmt.Fprintf(w, "== %s after %d turns ==\n", res.Outcome, res.Turns)
	}
	if res.Reply != "" {
		fmt.Fprintln(w, res.Reply)
	}
	for _, key := range res.Acquired {
		fmt.Fprintf(w, "recorded acquisition: %s\n", key)
	}
}
