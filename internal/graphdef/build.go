package graphdef

import (
	"github.com/roach88/vellum/internal/holder"
	"github.com/roach88/vellum/internal/serial"
)

// Graph is a built definition: live holders addressable by node name.
type Graph struct {
	def   *Definition
	auth  *serial.Authority
	nodes map[string]holder.Holder[int64]
	order []string
}

// tokenSetter is satisfied by every concrete holder kind; graph nodes get
// their declared name as the trace token.
type tokenSetter interface {
	SetToken(string)
}

// Build constructs the holders a definition declares, in declaration
// order. The definition must already have passed Parse.
func Build(a *serial.Authority, def *Definition) (*Graph, error) {
	g := &Graph{
		def:   def,
		auth:  a,
		nodes: make(map[string]holder.Holder[int64], len(def.Nodes)),
		order: make([]string, 0, len(def.Nodes)),
	}

	for i := range def.Nodes {
		n := &def.Nodes[i]
		h, err := g.buildNode(n)
		if err != nil {
			return nil, err
		}
		if ts, ok := h.(tokenSetter); ok {
			ts.SetToken(n.Name)
		}
		g.nodes[n.Name] = h
		g.order = append(g.order, n.Name)
	}
	return g, nil
}

func (g *Graph) buildNode(n *Node) (holder.Holder[int64], error) {
	switch n.Kind {
	case KindVolatile:
		return holder.NewVolatile(g.auth, n.Value), nil

	case KindImmutable:
		return holder.NewImmutable(g.auth, n.Value), nil

	case KindVector:
		agg, err := aggregateFor(n.Op)
		if err != nil {
			return nil, err
		}
		return holder.NewVector(g.auth, g.holders(n.Deps), agg), nil

	case KindLatest:
		return holder.NewLatest(g.auth, g.holders(n.Deps)...)

	case KindAlias:
		return holder.NewAlias(g.auth, g.nodes[n.Target]), nil

	case KindCache:
		return holder.NewCache(g.auth, g.nodes[n.Source]), nil

	case KindFrozen:
		return holder.NewFrozen(g.nodes[n.Source]), nil

	case KindProperty:
		p := holder.NewProperty(g.auth, n.Value)
		if n.Connect != "" {
			p.Connect(g.nodes[n.Connect])
			p.ConnectionFinalized()
		}
		return p, nil

	default:
		// Parse rejects unknown kinds; reaching here means Build was
		// handed an unvalidated definition.
		return nil, &DefError{Code: ErrCodeSchema, Node: n.Name,
			Message: "unknown kind " + string(n.Kind)}
	}
}

// holders resolves a dependency name list. Validation guarantees every
// name is declared before its referrer.
func (g *Graph) holders(names []string) []holder.Holder[int64] {
	hs := make([]holder.Holder[int64], len(names))
	for i, name := range names {
		hs[i] = g.nodes[name]
	}
	return hs
}

// Authority returns the serial authority the graph was built against.
func (g *Graph) Authority() *serial.Authority { return g.auth }

// Node looks up a holder by declared name.
func (g *Graph) Node(name string) (holder.Holder[int64], bool) {
	h, ok := g.nodes[name]
	return h, ok
}

// Names returns the node names in declaration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Set writes a named node. Fails on unknown names and on read-only nodes.
func (g *Graph) Set(name string, value int64) error {
	h, ok := g.nodes[name]
	if !ok {
		return &DefError{Code: ErrCodeUnknownRef, Node: name, Message: "no such node"}
	}
	return h.SetValue(value)
}

// Result is one evaluated output.
type Result struct {
	Name   string
	Value  int64
	Serial serial.Serial
}

// Eval reads the declared outputs (or every node, when the definition
// declares none), recomputing stale derived nodes along the way.
func (g *Graph) Eval() []Result {
	names := g.def.Outputs
	if len(names) == 0 {
		names = g.order
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		h := g.nodes[name]
		results = append(results, Result{
			Name:   name,
			Value:  h.Value(),
			Serial: h.DataSerial(),
		})
	}
	return results
}

// aggregateFor maps an op name to its fold over the dependency values.
func aggregateFor(op Op) (func([]int64) int64, error) {
	switch op {
	case OpSum:
		return func(vs []int64) int64 {
			var total int64
			for _, v := range vs {
				total += v
			}
			return total
		}, nil

	case OpProduct:
		return func(vs []int64) int64 {
			total := int64(1)
			for _, v := range vs {
				total *= v
			}
			return total
		}, nil

	case OpMin:
		return func(vs []int64) int64 {
			m := vs[0]
			for _, v := range vs[1:] {
				if v < m {
					m = v
				}
			}
			return m
		}, nil

	case OpMax:
		return func(vs []int64) int64 {
			m := vs[0]
			for _, v := range vs[1:] {
				if v > m {
					m = v
				}
			}
			return m
		}, nil

	case OpCount:
		return func(vs []int64) int64 { return int64(len(vs)) }, nil

	default:
		return nil, &DefError{Code: ErrCodeSchema, Message: "unknown op " + string(op)}
	}
}
