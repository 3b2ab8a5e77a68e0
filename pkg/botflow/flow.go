package botflow

// NodeType identifies the interaction kind of a node.
type NodeType string

// Node types supported by the engine.
const (
	NodeStart       NodeType = "start"
	NodeMessage     NodeType = "message"
	NodeMultiChoice NodeType = "multichoice"
	NodeButton      NodeType = "button"
	NodeTextInput   NodeType = "textinput"
	NodeRating      NodeType = "rating"
	NodeEnd         NodeType = "end"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeMessage, NodeMultiChoice, NodeButton,
		NodeTextInput, NodeRating, NodeEnd:
		return true
	}
	return false
}

// DefaultOutput is the single output identifier of linear node types
// (start, message, textinput). Option-driven nodes emit on one output
// per option value instead; rating and end nodes declare no outputs.
const DefaultOutput = "output-1"

// Option is one selectable choice offered by a multichoice or button node.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// NodeData is the payload of a node.
type NodeData struct {
	// Title is the display label used by authoring tools.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the message text shown to the user. It may contain a
	// {{userInput}} placeholder substituted with the most recent
	// free-text user input.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Options are the ordered choices of multichoice and button nodes.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`

	// UseAI delegates this node's turn to the completion service
	// instead of trigger matching.
	UseAI bool `json:"useAI,omitempty" yaml:"useAI,omitempty"`
}

// Node is a single step in a conversation flow.
type Node struct {
	ID      string   `json:"id" yaml:"id"`
	Type    NodeType `json:"type" yaml:"type"`
	Data    NodeData `json:"data" yaml:"data"`
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Connection is a directed, labeled edge between two nodes.
// SourceOutput is the trigger value that activates the edge: an option
// value for multichoice/button sources, DefaultOutput otherwise.
type Connection struct {
	ID           string `json:"id" yaml:"id"`
	SourceID     string `json:"sourceId" yaml:"sourceId"`
	TargetID     string `json:"targetId" yaml:"targetId"`
	SourceOutput string `json:"sourceOutput" yaml:"sourceOutput"`
}

// Flow is an author-defined conversation graph plus its framing messages.
//
// Flow performs no validation: malformed graphs (missing start node,
// dangling connections, duplicate ids) are tolerated here and degrade to
// stalled or fallback-driven conversations at run time. Use Lint for
// authoring-time diagnostics.
//
// A Flow is treated as immutable by Sessions for the duration of a run.
// The authoring edits below must only be applied between runs; use Clone
// to hand a private snapshot to each run.
type Flow struct {
	Name            string       `json:"name,omitempty" yaml:"name,omitempty"`
	WelcomeMessage  string       `json:"welcomeMessage,omitempty" yaml:"welcomeMessage,omitempty"`
	FallbackMessage string       `json:"fallbackMessage,omitempty" yaml:"fallbackMessage,omitempty"`
	Nodes           []Node       `json:"nodes" yaml:"nodes"`
	Connections     []Connection `json:"connections" yaml:"connections"`
}

// FindNode returns the node with the given id.
func (f *Flow) FindNode(id string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// StartNode returns the flow's entry node: the first node of type start
// in document order. By convention its id is "start-1", but resolution
// is by type so renamed flows still run.
func (f *Flow) StartNode() (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].Type == NodeStart {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// OutgoingConnections returns every connection whose source is nodeID,
// in document order. Document order is authoring order, which makes the
// first entry the deterministic winner for ambiguous fan-out.
func (f *Flow) OutgoingConnections(nodeID string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.SourceID == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// FindConnection returns the first connection from nodeID whose
// SourceOutput equals trigger. The comparison is exact and
// case-sensitive: option values are opaque tokens.
func (f *Flow) FindConnection(nodeID, trigger string) (*Connection, bool) {
	for i := range f.Connections {
		c := &f.Connections[i]
		if c.SourceID == nodeID && c.SourceOutput == trigger {
			return c, true
		}
	}
	return nil, false
}

// FirstConnection returns the first connection from nodeID regardless of
// trigger. Linear node types (start, message, textinput) auto-advance
// along this edge.
func (f *Flow) FirstConnection(nodeID string) (*Connection, bool) {
	for i := range f.Connections {
		if f.Connections[i].SourceID == nodeID {
			return &f.Connections[i], true
		}
	}
	return nil, false
}

// AddNode appends a node to the flow.
func (f *Flow) AddNode(n Node) {
	f.Nodes = append(f.Nodes, n)
}

// AddConnection appends a connection to the flow.
func (f *Flow) AddConnection(c Connection) {
	f.Connections = append(f.Connections, c)
}

// RemoveNode removes the node with the given id together with every
// connection that references it as source or target, as a single edit.
// Removing an unknown id is a no-op.
func (f *Flow) RemoveNode(id string) {
	nodes := f.Nodes[:0]
	for _, n := range f.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	f.Nodes = nodes

	conns := f.Connections[:0]
	for _, c := range f.Connections {
		if c.SourceID != id && c.TargetID != id {
			conns = append(conns, c)
		}
	}
	f.Connections = conns
}

// RemoveConnection removes the connection with the given id.
// Removing an unknown id is a no-op.
func (f *Flow) RemoveConnection(id string) {
	conns := f.Connections[:0]
	for _, c := range f.Connections {
		if c.ID != id {
			conns = append(conns, c)
		}
	}
	f.Connections = conns
}

// Clone returns a deep copy of the flow. Sessions should run over a
// clone when the original remains open in an authoring tool.
func (f *Flow) Clone() *Flow {
	cp := &Flow{
		Name:            f.Name,
		WelcomeMessage:  f.WelcomeMessage,
		FallbackMessage: f.FallbackMessage,
	}
	if f.Nodes != nil {
		cp.Nodes = make([]Node, len(f.Nodes))
		for i, n := range f.Nodes {
			cp.Nodes[i] = n
			if n.Data.Options != nil {
				cp.Nodes[i].Data.Options = append([]Option(nil), n.Data.Options...)
			}
			if n.Outputs != nil {
				cp.Nodes[i].Outputs = append([]string(nil), n.Outputs...)
			}
		}
	}
	if f.Connections != nil {
		cp.Connections = append([]Connection(nil), f.Connections...)
	}
	return cp
}
