// Package scenario replays scripted document mutations against a presence
// tree and records the resulting transition timeline.
package scenario

import (
	"fmt"

	"github.com/aretw0/presence/pkg/dsl"
)

// Action names a scenario step.
type Action string

const (
	ActionRemove  Action = "remove"
	ActionAppend  Action = "append"
	ActionPrepend Action = "prepend"
	ActionInsert  Action = "insert"
	ActionSetKey  Action = "set-key"
	ActionEnter   Action = "enter"
	ActionExit    Action = "exit"
	ActionObserve Action = "observe"
	ActionMount   Action = "mount"
	ActionSettle  Action = "settle"
)

// Scenario is an initial tree plus the steps applied to it.
type Scenario struct {
	ID          string         `json:"id" yaml:"id" mapstructure:"id"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Observe     *bool          `json:"observe,omitempty" yaml:"observe,omitempty" mapstructure:"observe"`
	Tree        []dsl.NodeSpec `json:"tree" yaml:"tree" mapstructure:"tree"`
	Steps       []Step         `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Step is one mutation or imperative call.
//
// Node is the subject element (for enter, exit and observe: the presence
// container whose coordinator is driven). Parent is the target of append
// and prepend, After the sibling an inserted node follows. Elements that do
// not exist yet are created with Tag.
type Step struct {
	Action  Action `json:"action" yaml:"action" mapstructure:"action"`
	Node    string `json:"node" yaml:"node" mapstructure:"node"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
	After   string `json:"after,omitempty" yaml:"after,omitempty" mapstructure:"after"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty" mapstructure:"tag"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	Observe *bool  `json:"observe,omitempty" yaml:"observe,omitempty" mapstructure:"observe"`
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Action, s.Node)
}

// Validate checks that every step carries the fields its action needs.
func (sc Scenario) Validate() error {
	if len(sc.Tree) == 0 {
		return fmt.Errorf("scenario %q: empty tree", sc.ID)
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("scenario %q: step %d: %w", sc.ID, i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionMount, ActionSettle:
		return nil
	case ActionRemove, ActionEnter, ActionExit:
	case ActionAppend, ActionPrepend:
		if s.Parent == "" {
			return fmt.Errorf("%s requires parent", s.Action)
		}
	case ActionInsert:
		if s.After == "" {
			return fmt.Errorf("insert requires after")
		}
	case ActionSetKey:
		if s.Key == "" {
			return fmt.Errorf("set-key requires key")
		}
	case ActionObserve:
		if s.Observe == nil {
			return fmt.Errorf("observe requires observe")
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	if s.Node == "" {
		return fmt.Errorf("%s requires node", s.Action)
	}
	return nil
}
