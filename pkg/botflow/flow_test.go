package botflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botflow/pkg/botflow"
)

// sampleFlow builds a small graph: start -> menu (yes/no) -> end.
func sampleFlow() *botflow.Flow {
	return &botflow.Flow{
		Name: "sample",
		Nodes: []botflow.Node{
			{ID: "start-1", Type: botflow.NodeStart, Data: botflow.NodeData{Content: "Hello!"}, Outputs: []string{botflow.DefaultOutput}},
			{ID: "menu", Type: botflow.NodeButton, Data: botflow.NodeData{
				Content: "Pick one",
				Options: []botflow.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
			}, Outputs: []string{"yes", "no"}},
			{ID: "end-1", Type: botflow.NodeEnd, Data: botflow.NodeData{Content: "Bye!"}},
		},
		Connections: []botflow.Connection{
			{ID: "c1", SourceID: "start-1", TargetID: "menu", SourceOutput: botflow.DefaultOutput},
			{ID: "c2", SourceID: "menu", TargetID: "end-1", SourceOutput: "yes"},
			{ID: "c3", SourceID: "menu", TargetID: "end-1", SourceOutput: "no"},
		},
	}
}

// TestNodeTypeValid verifies membership checks for node types.
func TestNodeTypeValid(t *testing.T) {
	valid := []botflow.NodeType{
		botflow.NodeStart, botflow.NodeMessage, botflow.NodeMultiChoice,
		botflow.NodeButton, botflow.NodeTextInput, botflow.NodeRating, botflow.NodeEnd,
	}
	for _, nt := range valid {
		assert.True(t, nt.Valid(), "type %q should be valid", nt)
	}

	assert.False(t, botflow.NodeType("").Valid())
	assert.False(t, botflow.NodeType("carousel").Valid())
}

// TestFindNode verifies node lookup by id.
func TestFindNode(t *testing.T) {
	f := sampleFlow()

	n, ok := f.FindNode("menu")
	require.True(t, ok)
	assert.Equal(t, botflow.NodeButton, n.Type)

	_, ok = f.FindNode("nope")
	assert.False(t, ok)
}

// TestStartNode verifies entry resolution by type, not by id.
func TestStartNode(t *testing.T) {
	f := sampleFlow()
	f.Nodes[0].ID = "renamed-start"
	f.Connections[0].SourceID = "renamed-start"

	start, ok := f.StartNode()
	require.True(t, ok)
	assert.Equal(t, "renamed-start", start.ID)

	empty := &botflow.Flow{}
	_, ok = empty.StartNode()
	assert.False(t, ok)
}

// TestStartNodeFirstWins verifies that with two start nodes, the first
// in document order is the entry.
func TestStartNodeFirstWins(t *testing.T) {
	f := sampleFlow()
	f.AddNode(botflow.Node{ID: "start-2", Type: botflow.NodeStart})

	start, ok := f.StartNode()
	require.True(t, ok)
	assert.Equal(t, "start-1", start.ID)
}

// TestFindConnection verifies trigger matching.
func TestFindConnection(t *testing.T) {
	f := sampleFlow()

	c, ok := f.FindConnection("menu", "yes")
	require.True(t, ok)
	assert.Equal(t, "c2", c.ID)

	// Option values are opaque tokens: exact, case-sensitive match.
	_, ok = f.FindConnection("menu", "YES")
	assert.False(t, ok)

	_, ok = f.FindConnection("menu", "maybe")
	assert.False(t, ok)

	_, ok = f.FindConnection("nope", "yes")
	assert.False(t, ok)
}

// TestFindConnectionAmbiguousFanOut verifies the first connection in
// document order wins when several share a source and trigger.
func TestFindConnectionAmbiguousFanOut(t *testing.T) {
	f := sampleFlow()
	f.AddConnection(botflow.Connection{ID: "c4", SourceID: "menu", TargetID: "start-1", SourceOutput: "yes"})

	c, ok := f.FindConnection("menu", "yes")
	require.True(t, ok)
	assert.Equal(t, "c2", c.ID, "first-created connection should win")
}

// TestOutgoingConnections verifies document order is preserved.
func TestOutgoingConnections(t *testing.T) {
	f := sampleFlow()

	conns := f.OutgoingConnections("menu")
	require.Len(t, conns, 2)
	assert.Equal(t, "c2", conns[0].ID)
	assert.Equal(t, "c3", conns[1].ID)

	assert.Empty(t, f.OutgoingConnections("end-1"))
}

// TestFirstConnection verifies the auto-advance edge lookup.
func TestFirstConnection(t *testing.T) {
	f := sampleFlow()

	c, ok := f.FirstConnection("start-1")
	require.True(t, ok)
	assert.Equal(t, "menu", c.TargetID)

	_, ok = f.FirstConnection("end-1")
	assert.False(t, ok)
}

// TestRemoveNode verifies node deletion removes every touching
// connection in the same edit.
func TestRemoveNode(t *testing.T) {
	f := sampleFlow()

	f.RemoveNode("menu")

	_, ok := f.FindNode("menu")
	assert.False(t, ok)
	assert.Empty(t, f.Connections, "all connections touched the removed node")

	// Unknown id is a no-op.
	before := len(f.Nodes)
	f.RemoveNode("nope")
	assert.Len(t, f.Nodes, before)
}

// TestRemoveConnection verifies single connection removal.
func TestRemoveConnection(t *testing.T) {
	f := sampleFlow()

	f.RemoveConnection("c2")
	require.Len(t, f.Connections, 2)
	_, ok := f.FindConnection("menu", "yes")
	assert.False(t, ok)
	_, ok = f.FindConnection("menu", "no")
	assert.True(t, ok)
}

// TestClone verifies deep copy isolation.
func TestClone(t *testing.T) {
	f := sampleFlow()
	cp := f.Clone()

	cp.Nodes[1].Data.Options[0].Value = "mutated"
	cp.RemoveNode("end-1")
	cp.FallbackMessage = "changed"

	assert.Equal(t, "yes", f.Nodes[1].Data.Options[0].Value)
	_, ok := f.FindNode("end-1")
	assert.True(t, ok)
	assert.Empty(t, f.FallbackMessage)
}
