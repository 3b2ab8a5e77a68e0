package botflow

import "fmt"

// ProblemCode classifies an authoring-time diagnostic.
type ProblemCode string

// Lint diagnostic codes.
const (
	// CodeMissingStart means the flow has no start node.
	CodeMissingStart ProblemCode = "missing_start"

	// CodeDuplicateStart means the flow has more than one start node.
	CodeDuplicateStart ProblemCode = "duplicate_start"

	// CodeUnknownNodeType means a node's type is not a known kind.
	CodeUnknownNodeType ProblemCode = "unknown_node_type"

	// CodeDuplicateNodeID means two nodes share an id.
	CodeDuplicateNodeID ProblemCode = "duplicate_node_id"

	// CodeDuplicateConnectionID means two connections share an id.
	CodeDuplicateConnectionID ProblemCode = "duplicate_connection_id"

	// CodeDanglingSource means a connection's source node does not exist.
	CodeDanglingSource ProblemCode = "dangling_source"

	// CodeDanglingTarget means a connection's target node does not exist.
	CodeDanglingTarget ProblemCode = "dangling_target"

	// CodeUnknownOutput means a connection's sourceOutput is not among
	// its source node's declared outputs.
	CodeUnknownOutput ProblemCode = "unknown_output"

	// CodeAmbiguousFanOut means several connections share a source node
	// and trigger; only the first in document order will ever fire.
	CodeAmbiguousFanOut ProblemCode = "ambiguous_fan_out"

	// CodeMissingOptions means an option-driven node declares no options.
	CodeMissingOptions ProblemCode = "missing_options"

	// CodeUnreachable means a node cannot be reached from the start node.
	CodeUnreachable ProblemCode = "unreachable"
)

// Problem is one lint diagnostic. NodeID and ConnectionID identify the
// offending element when the code concerns one.
type Problem struct {
	Code         ProblemCode `json:"code"`
	NodeID       string      `json:"nodeId,omitempty"`
	ConnectionID string      `json:"connectionId,omitempty"`
	Message      string      `json:"message"`
}

// Lint checks a flow for authoring mistakes the engine would otherwise
// tolerate at run time by stalling or falling back. It never modifies
// the flow and an empty result means no problems were found.
//
// A flow with problems still runs; Lint exists so authoring tools can
// surface degradations before a conversation hits them.
func Lint(f *Flow) []Problem {
	if f == nil {
		return nil
	}

	var problems []Problem

	nodeIDs := make(map[string]bool, len(f.Nodes))
	startCount := 0
	for _, n := range f.Nodes {
		if nodeIDs[n.ID] {
			problems = append(problems, Problem{
				Code:    CodeDuplicateNodeID,
				NodeID:  n.ID,
				Message: fmt.Sprintf("node id %q is used more than once", n.ID),
			})
		}
		nodeIDs[n.ID] = true

		if !n.Type.Valid() {
			problems = append(problems, Problem{
				Code:    CodeUnknownNodeType,
				NodeID:  n.ID,
				Message: fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type),
			})
		}

		if n.Type == NodeStart {
			startCount++
			if startCount > 1 {
				problems = append(problems, Problem{
					Code:    CodeDuplicateStart,
					NodeID:  n.ID,
					Message: fmt.Sprintf("node %q is an extra start node; only the first start node runs", n.ID),
				})
			}
		}

		if (n.Type == NodeMultiChoice || n.Type == NodeButton) && len(n.Data.Options) == 0 {
			problems = append(problems, Problem{
				Code:    CodeMissingOptions,
				NodeID:  n.ID,
				Message: fmt.Sprintf("%s node %q declares no options, so no selection can resolve", n.Type, n.ID),
			})
		}
	}

	if startCount == 0 {
		problems = append(problems, Problem{
			Code:    CodeMissingStart,
			Message: "flow has no start node; a run stalls immediately",
		})
	}

	connIDs := make(map[string]bool, len(f.Connections))
	seenTriggers := make(map[string]string, len(f.Connections))
	for _, c := range f.Connections {
		if connIDs[c.ID] {
			problems = append(problems, Problem{
				Code:         CodeDuplicateConnectionID,
				ConnectionID: c.ID,
				Message:      fmt.Sprintf("connection id %q is used more than once", c.ID),
			})
		}
		connIDs[c.ID] = true

		source, sourceExists := f.FindNode(c.SourceID)
		if !sourceExists {
			problems = append(problems, Problem{
				Code:         CodeDanglingSource,
				ConnectionID: c.ID,
				Message:      fmt.Sprintf("connection %q has nonexistent source node %q", c.ID, c.SourceID),
			})
		}
		if _, ok := f.FindNode(c.TargetID); !ok {
			problems = append(problems, Problem{
				Code:         CodeDanglingTarget,
				ConnectionID: c.ID,
				Message:      fmt.Sprintf("connection %q has nonexistent target node %q", c.ID, c.TargetID),
			})
		}

		if sourceExists && len(source.Outputs) > 0 && !containsString(source.Outputs, c.SourceOutput) {
			problems = append(problems, Problem{
				Code:         CodeUnknownOutput,
				NodeID:       c.SourceID,
				ConnectionID: c.ID,
				Message: fmt.Sprintf("connection %q fires on output %q, which node %q does not declare",
					c.ID, c.SourceOutput, c.SourceID),
			})
		}

		trigger := c.SourceID + "\x00" + c.SourceOutput
		if firstID, dup := seenTriggers[trigger]; dup {
			problems = append(problems, Problem{
				Code:         CodeAmbiguousFanOut,
				NodeID:       c.SourceID,
				ConnectionID: c.ID,
				Message: fmt.Sprintf("connection %q shares source %q and trigger %q with connection %q; only %q will fire",
					c.ID, c.SourceID, c.SourceOutput, firstID, firstID),
			})
		} else {
			seenTriggers[trigger] = c.ID
		}
	}

	for _, p := range unreachableNodes(f) {
		problems = append(problems, p)
	}

	return problems
}

// unreachableNodes reports nodes with no path from the start node,
// using BFS over connections. With no start node everything is
// unreachable, which CodeMissingStart already covers, so this reports
// nothing then.
func unreachableNodes(f *Flow) []Problem {
	start, ok := f.StartNode()
	if !ok {
		return nil
	}

	reachable := map[string]bool{start.ID: true}
	queue := []string{start.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, c := range f.OutgoingConnections(current) {
			if !reachable[c.TargetID] {
				reachable[c.TargetID] = true
				queue = append(queue, c.TargetID)
			}
		}
	}

	var problems []Problem
	for _, n := range f.Nodes {
		if !reachable[n.ID] {
			problems = append(problems, Problem{
				Code:    CodeUnreachable,
				NodeID:  n.ID,
				Message: fmt.Sprintf("node %q is unreachable from the start node", n.ID),
			})
		}
	}
	return problems
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
