package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/presence/pkg/domain"
)

// Overlay contains dynamic data to highlight on the graph.
type Overlay struct {
	// Changed lists the node ids touched by the last step.
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of a document snapshot.
// It applies semantic styling:
// - Presence container: {{Hexagon}}
// - Hidden element: ([Stadium])
// - Default element: [Rectangle]
// Shadow children hang off their host with a dotted edge. Every element gets
// a class named after its state.
func GenerateMermaid(root *domain.NodeSnapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	states := make(map[string][]string)
	var walk func(n *domain.NodeSnapshot)
	walk = func(n *domain.NodeSnapshot) {
		safeID := sanitizeMermaidID(n.ID)
		sb.WriteString(fmt.Sprintf("    %s\n", nodeLabel(n)))
		if n.State != "" {
			states[n.State] = append(states[n.State], safeID)
		}
		if n.Shadow != nil {
			for _, c := range elements(n.Shadow.Children) {
				sb.WriteString(fmt.Sprintf("    %s -. shadow .-> %s\n", safeID, sanitizeMermaidID(c.ID)))
				walk(c)
			}
		}
		for _, c := range elements(n.Children) {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(c.ID)))
			walk(c)
		}
	}
	walk(root)

	sb.WriteString("\n    %% State Styles\n")
	sb.WriteString("    classDef entering fill:#e8f5e9,stroke:#2e7d32,color:#000;\n")
	sb.WriteString("    classDef pending_exit fill:#fff8e1,stroke:#f9a825,color:#000;\n")
	sb.WriteString("    classDef exiting fill:#fff3e0,stroke:#ef6c00,color:#000;\n")
	sb.WriteString("    classDef exited fill:#eceff1,stroke:#546e7a,stroke-dasharray:4,color:#000;\n")
	for _, state := range []string{"entering", "pending-exit", "exiting", "exited"} {
		ids := states[state]
		if len(ids) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", strings.Join(ids, ","), sanitizeMermaidID(state)))
	}

	if overlay != nil && len(overlay.Changed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef changed stroke:#d81b60,stroke-width:4px;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Changed {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s changed;\n", safeID))
			}
		}
	}

	return sb.String()
}

func nodeLabel(n *domain.NodeSnapshot) string {
	safeID := sanitizeMermaidID(n.ID)
	opener, closer := "[", "]"
	switch {
	case n.Tag == domain.PresenceTag:
		opener, closer = "{{", "}}"
	case n.Hidden:
		opener, closer = "([", "])"
	}

	text := n.ID
	if text == "" {
		text = n.Tag
	}
	if n.PresenceKey != "" && n.PresenceKey != n.ID {
		text += " <br/> key: " + n.PresenceKey
	}
	if len(n.Markers) > 0 {
		text += " <br/> " + strings.Join(n.Markers, " ")
	}
	if n.Index != nil {
		text += fmt.Sprintf(" <br/> --i: %d", *n.Index)
	}
	return fmt.Sprintf("%s%s\"%s\"%s", safeID, opener, strings.ReplaceAll(text, "\"", "'"), closer)
}

func elements(children []*domain.NodeSnapshot) []*domain.NodeSnapshot {
	out := make([]*domain.NodeSnapshot, 0, len(children))
	for _, c := range children {
		if c.Kind == domain.KindElement.String() {
			out = append(out, c)
		}
	}
	return out
}

func sanitizeMermaidID(id string) string {
	if id == "" {
		return "root"
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
