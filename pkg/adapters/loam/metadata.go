package loam

import (
	"github.com/aretw0/presence/pkg/dsl"
	"github.com/aretw0/presence/pkg/scenario"
)

// ScenarioMetadata is the frontmatter of a scenario document.
// It uses "mapstructure" tags to match the YAML keys of scenario files.
type ScenarioMetadata struct {
	ID          string          `json:"id" mapstructure:"id"`
	Description string          `json:"description" mapstructure:"description"`
	Observe     *bool           `json:"observe,omitempty" mapstructure:"observe"`
	Tree        []dsl.NodeSpec  `json:"tree" mapstructure:"tree"`
	Steps       []scenario.Step `json:"steps" mapstructure:"steps"`

	// General Metadata
	Metadata map[string]string `json:"metadata" mapstructure:"metadata"`
}
