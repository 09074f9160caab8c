package scenario_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/dsl"
	"github.com/aretw0/presence/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listScenario = `
id: list
tree:
  - id: list
    presence: true
    children:
      - {id: x, tag: li}
      - {id: y, tag: li}
      - {id: z, tag: li}
steps:
  - {action: remove, node: y}
  - {action: append, node: w, parent: list, tag: li}
  - {action: exit, node: list}
`

func run(t *testing.T, sc scenario.Scenario, opts ...presence.Option) *scenario.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := scenario.NewRunner(nil, opts...).Run(ctx, sc)
	require.NoError(t, err)
	return res
}

func stepEntries(res *scenario.Result, step int, typ domain.EventType) []scenario.Entry {
	var out []scenario.Entry
	for _, e := range res.Filter(typ) {
		if e.Step == step {
			out = append(out, e)
		}
	}
	return out
}

func TestRunner_ListScenario(t *testing.T) {
	sc, err := scenario.Parse([]byte(listScenario), ".yaml")
	require.NoError(t, err)

	res := run(t, sc)
	assert.Equal(t, "list", res.Scenario)

	steps := res.Filter(scenario.EntryStep)
	require.Len(t, steps, 4)
	assert.Equal(t, "mount", steps[0].Note)
	assert.Equal(t, "remove y", steps[1].Note)

	// Mount enters the three initial children.
	assert.Len(t, stepEntries(res, 0, domain.EventTransitionEnd), 3)

	// Removing y plays its exit before disposal.
	removal := stepEntries(res, 1, domain.EventTransitionStart)
	require.Len(t, removal, 1)
	assert.Equal(t, "y", removal[0].NodeID)
	assert.Equal(t, domain.PhaseExit, removal[0].Phase)
	assert.Equal(t, domain.DisposeRemove, removal[0].Disposal)

	// The appended element enters.
	added := stepEntries(res, 2, domain.EventTransitionStart)
	require.Len(t, added, 1)
	assert.Equal(t, "w", added[0].NodeID)
	assert.Equal(t, domain.PhaseEnter, added[0].Phase)
	assert.Equal(t, 1, added[0].Index)

	// The imperative exit hides every remaining child and completes once.
	hidden := stepEntries(res, 3, domain.EventTransitionStart)
	assert.Len(t, hidden, 3)
	for _, e := range hidden {
		assert.Equal(t, domain.DisposeHide, e.Disposal)
	}
	done := stepEntries(res, 3, domain.EventExitComplete)
	require.Len(t, done, 1)
	assert.Equal(t, "list", done[0].PresenceKey)

	require.Len(t, res.Final.Children, 1)
	var ids []string
	for _, c := range res.Final.Children[0].Children {
		ids = append(ids, c.ID)
		assert.True(t, c.Hidden, c.ID)
	}
	assert.Equal(t, []string{"x", "z", "w"}, ids)
	require.Len(t, res.Status, 1)
	assert.Equal(t, "exited", res.Status[0].Phase)
}

func TestRunner_ObserveOffIgnoresMutations(t *testing.T) {
	off := false
	sc := scenario.Scenario{
		ID:      "quiet",
		Observe: &off,
		Tree: []dsl.NodeSpec{
			{ID: "list", Presence: true, Children: []dsl.NodeSpec{{ID: "a", Tag: "li"}}},
		},
		Steps: []scenario.Step{
			{Action: scenario.ActionRemove, Node: "a"},
		},
	}

	res := run(t, sc)
	assert.Empty(t, stepEntries(res, 1, domain.EventTransitionStart))
	assert.Empty(t, res.Final.Children[0].Children)
}

func TestRunner_SetKeyAndNestedMount(t *testing.T) {
	on := true
	sc := scenario.Scenario{
		ID: "nested",
		Tree: []dsl.NodeSpec{
			{ID: "page", Presence: true, Children: []dsl.NodeSpec{{ID: "card"}}},
		},
		Steps: []scenario.Step{
			{Action: scenario.ActionAppend, Node: "inner", Parent: "card", Tag: domain.PresenceTag},
			{Action: scenario.ActionMount},
			{Action: scenario.ActionObserve, Node: "inner", Observe: &on},
			{Action: scenario.ActionSetKey, Node: "card", Key: "k2"},
			{Action: scenario.ActionSettle},
		},
	}

	res := run(t, sc)
	require.Len(t, res.Status, 1)
	require.Len(t, res.Status[0].Descendants, 1)
	assert.Equal(t, "inner", res.Status[0].Descendants[0].Key)
	assert.Equal(t, "k2", res.Final.Children[0].Children[0].Key)
}

func TestRunner_Errors(t *testing.T) {
	runner := scenario.NewRunner(nil)
	ctx := context.Background()

	_, err := runner.Run(ctx, scenario.Scenario{ID: "empty"})
	assert.Error(t, err)

	_, err = runner.Run(ctx, scenario.Scenario{
		ID:    "unknown",
		Tree:  []dsl.NodeSpec{{ID: "list", Presence: true}},
		Steps: []scenario.Step{{Action: scenario.ActionRemove, Node: "ghost"}},
	})
	assert.ErrorContains(t, err, `unknown node "ghost"`)

	_, err = runner.Run(ctx, scenario.Scenario{
		ID:    "missing",
		Tree:  []dsl.NodeSpec{{ID: "list", Presence: true}},
		Steps: []scenario.Step{{Action: scenario.ActionExit, Node: "nope"}},
	})
	assert.ErrorIs(t, err, domain.ErrCoordinatorNotFound)
}

func TestValidate_StepFields(t *testing.T) {
	tree := []dsl.NodeSpec{{ID: "list", Presence: true}}
	cases := map[string]scenario.Step{
		"unknown action": {Action: "fly", Node: "a"},
		"append parent":  {Action: scenario.ActionAppend, Node: "a"},
		"insert after":   {Action: scenario.ActionInsert, Node: "a"},
		"set-key key":    {Action: scenario.ActionSetKey, Node: "a"},
		"observe value":  {Action: scenario.ActionObserve, Node: "list"},
		"remove node":    {Action: scenario.ActionRemove},
	}
	for name, st := range cases {
		t.Run(name, func(t *testing.T) {
			sc := scenario.Scenario{ID: "v", Tree: tree, Steps: []scenario.Step{st}}
			assert.Error(t, sc.Validate())
		})
	}
}

func TestLoad_DefaultsIDToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "tree": [{"id": "menu", "presence": true, "children": [{"id": "open"}]}],
  "steps": [{"action": "insert", "node": "save", "after": "open"}]
}`), 0o644))

	sc, err := scenario.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "menu", sc.ID)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, scenario.ActionInsert, sc.Steps[0].Action)

	res := run(t, sc)
	ids := []string{}
	for _, c := range res.Final.Children[0].Children {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"open", "save"}, ids)
}

func TestRunner_StartMountsWithoutSteps(t *testing.T) {
	sc, err := scenario.Parse([]byte(listScenario), ".yaml")
	require.NoError(t, err)

	p, err := scenario.NewRunner(nil).Start(context.Background(), sc)
	require.NoError(t, err)
	defer p.Close()

	status := p.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "entered", status[0].Phase)
	assert.Len(t, p.Document().NodeByID("list").ElementChildren(), 3)
}
