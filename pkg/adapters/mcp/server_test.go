package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/aretw0/presence/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *dsl.Tree) {
	t.Helper()
	b := dsl.New()
	b.Add("menu").Presence().Children("open", "save")
	b.Add("open").Tag("button")
	b.Add("save").Tag("button")
	tree, err := b.Build()
	require.NoError(t, err)

	p, err := presence.New(tree.Doc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Mount(ctx))
	require.NoError(t, p.Settle(ctx))
	return NewServer(p, nil), tree
}

func TestServer_InspectTree(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleInspectTree(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var snap domain.NodeSnapshot
	require.NoError(t, json.Unmarshal([]byte(text.Text), &snap))
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "menu", snap.Children[0].PresenceKey)
}

func TestServer_ExitThenEnter(t *testing.T) {
	s, tree := newServer(t)
	ctx := context.Background()

	out, err := s.handleExit(ctx, mcp.CallToolRequest{}, map[string]interface{}{"presence_key": "menu"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseExit, out.Phase)
	require.Len(t, out.Coordinators, 1)
	assert.Equal(t, "exited", out.Coordinators[0].Phase)
	assert.True(t, tree.Node("open").Hidden())

	out, err = s.handleEnter(ctx, mcp.CallToolRequest{}, map[string]interface{}{"presence_key": "menu"})
	require.NoError(t, err)
	assert.Equal(t, "entered", out.Coordinators[0].Phase)
	assert.False(t, tree.Node("open").Hidden())

	list, err := s.handleListCoordinators(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "menu", list.Coordinators[0].Key)
}

func TestServer_CycleErrors(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	_, err := s.handleExit(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleEnter(ctx, mcp.CallToolRequest{}, map[string]interface{}{"presence_key": "ghost"})
	assert.ErrorIs(t, err, domain.ErrCoordinatorNotFound)
}

func TestNewServer_RegistersToolsWithOutputSchemas(t *testing.T) {
	s, _ := newServer(t)

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 4)
	for _, name := range []string{"inspect_tree", "list_coordinators", "enter", "exit"} {
		require.Contains(t, tools, name)
	}
	for _, name := range []string{"list_coordinators", "enter", "exit"} {
		schema := tools[name].Tool.OutputSchema
		assert.Equal(t, "object", schema.Type, name)
		assert.Contains(t, schema.Properties, "coordinators", name)
	}

	raw, err := json.Marshal(tools["list_coordinators"].Tool)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"outputSchema"`)
}

func TestFlatten_AncestorsFirst(t *testing.T) {
	infos := flatten([]presence.Status{{
		Key: "page", Container: "page", Phase: "entered", Observe: true,
		Descendants: []presence.Status{
			{Key: "menu", Container: "menu", Phase: "exited", Ancestor: "page", Descendants: []presence.Status{
				{Key: "sub", Container: "sub", Phase: "idle", Ancestor: "menu"},
			}},
			{Key: "list", Container: "list", Phase: "entering", Ancestor: "page"},
		},
	}})

	var keys []string
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	assert.Equal(t, []string{"page", "menu", "sub", "list"}, keys)
	assert.Equal(t, "menu", infos[2].Ancestor)
	assert.True(t, infos[0].Observe)
	assert.Empty(t, flatten(nil))
}
