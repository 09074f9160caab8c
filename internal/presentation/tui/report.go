package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/scenario"
)

// Report formats a scenario result as markdown: one timeline table per step
// followed by the final coordinator phases.
func Report(res *scenario.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Scenario `%s`\n", res.Scenario)

	for _, e := range res.Timeline {
		switch e.Type {
		case scenario.EntryStep:
			fmt.Fprintf(&sb, "\n## Step %d: %s\n\n", e.Step, e.Note)
			sb.WriteString("| event | coordinator | node | phase | index | disposal |\n")
			sb.WriteString("|---|---|---|---|---|---|\n")
		case domain.EventExitComplete:
			fmt.Fprintf(&sb, "| exit complete | %s | %d nodes | | | |\n", e.PresenceKey, e.Nodes)
		default:
			event := strings.ReplaceAll(string(e.Type), "transition_", "")
			if e.Err != "" {
				event += " (" + e.Err + ")"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d | %s |\n",
				event, e.PresenceKey, e.NodeID, e.Phase, e.Index, e.Disposal)
		}
	}

	sb.WriteString("\n## Coordinators\n\n")
	var walk func(list []presence.Status, depth int)
	walk = func(list []presence.Status, depth int) {
		for _, st := range list {
			observe := "observing"
			if !st.Observe {
				observe = "not observing"
			}
			fmt.Fprintf(&sb, "%s- `%s` on `%s`: %s, %s\n", strings.Repeat("  ", depth), st.Key, st.Container, st.Phase, observe)
			walk(st.Descendants, depth+1)
		}
	}
	walk(res.Status, 0)
	return sb.String()
}
