package engrammer

import (
	"context"
	"fmt"
)

// NodeID identifies a graph node.
type NodeID string

const (
	NodeSupervisor NodeID = "supervisor"
	NodeReflector  NodeID = "reflector"
	NodeCurator    NodeID = "curator"
	NodeEnd        NodeID = "end"
)

// NodeHandler executes one node over the current state and returns a partial
// update. Handlers must be pure with respect to State (no in-place mutation).
type NodeHandler func(ctx context.Context, s State) (Update, error)

// Router picks the next node after a handler ran, based on the merged state.
type Router func(s State) NodeID

// Graph is an immutable node/router table. It is built once at startup; all
// per-session data lives in State and checkpoints.
type Graph struct {
	entry           NodeID
	handlers        map[NodeID]NodeHandler
	routers         map[NodeID]Router
	interruptBefore map[NodeID]bool
}

// NewGraph wires the standard session graph: supervisor routes to reflector,
// reflector to curator or end, curator to end. Execution pauses before
// curator so a human can approve or reject the pending insights.
func NewGraph(reflector NodeHandler) *Graph {
	return &Graph{
		entry: NodeSupervisor,
		handlers: map[NodeID]NodeHandler{
			// The supervisor is a routing stub today. It emits no state change
			// and always forwards to the reflector; discriminating routing to
			// specialized sub-agents hangs off this node later.
			NodeSupervisor: func(ctx context.Context, s State) (Update, error) {
				return Update{}, nil
			},
			NodeReflector: reflector,
			NodeCurator:   curateNode,
		},
		routers: map[NodeID]Router{
			NodeSupervisor: func(s State) NodeID { return NodeReflector },
			NodeReflector: func(s State) NodeID {
				if len(s.PendingInsights) > 0 {
					return NodeCurator
				}
				return NodeEnd
			},
			NodeCurator: func(s State) NodeID { return NodeEnd },
		},
		interruptBefore: map[NodeID]bool{
			NodeCurator: true,
		},
	}
}

// Entry returns the graph's entry node.
func (g *Graph) Entry() NodeID {
	return g.entry
}

// Run executes the graph starting at `from` and returns the final state plus
// the nodes still to execute. An empty next slice means the run reached End.
// When the walk arrives at a node marked interrupt-before, Run stops and
// reports that node as next; a resumed Run passes resume=true so the first
// node executes without re-triggering the interrupt.
func (g *Graph) Run(ctx context.Context, s State, from NodeID, resume bool) (State, []NodeID, error) {
	node := from
	first := true
	for node != NodeEnd {
		if g.interruptBefore[node] && !(first && resume) {
			return s, []NodeID{node}, nil
		}
		first = false

		handler, ok := g.handlers[node]
		if !ok {
			return s, nil, fmt.Errorf("no handler registered for node %s", node)
		}
		update, err := handler(ctx, s)
		if err != nil {
			return s, nil, fmt.Errorf("node %s: %w", node, err)
		}
		s = s.Apply(update)

		router, ok := g.routers[node]
		if !ok {
			return s, nil, fmt.Errorf("no router registered for node %s", node)
		}
		node = router(s)
	}
	return s, nil, nil
}

// curateNode commits the pending insights into the playbook and clears them.
func curateNode(ctx context.Context, s State) (Update, error) {
	approved := append([]Insight{}, s.PendingInsights...)
	empty := []Insight{}
	return Update{
		Playbook:        approved,
		PendingInsights: &empty,
	}, nil
}
