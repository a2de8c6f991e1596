package graphdef

import (
	"bytes"
	"fmt"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// NodeKind identifies how a declared node is constructed.
type NodeKind string

const (
	KindVolatile  NodeKind = "volatile"
	KindImmutable NodeKind = "immutable"
	KindVector    NodeKind = "vector"
	KindLatest    NodeKind = "latest"
	KindAlias     NodeKind = "alias"
	KindCache     NodeKind = "cache"
	KindFrozen    NodeKind = "frozen"
	KindProperty  NodeKind = "property"
)

// Op names a vector aggregation function.
type Op string

const (
	OpSum     Op = "sum"
	OpProduct Op = "product"
	OpMin     Op = "min"
	OpMax     Op = "max"
	OpCount   Op = "count"
)

// Definition is one parsed graph document.
type Definition struct {
	// Name identifies the graph in traces and harness output.
	Name string `yaml:"name"`

	// Nodes in declaration order. A node may only reference nodes
	// declared before it, which rules out definition cycles.
	Nodes []Node `yaml:"nodes"`

	// Outputs are the node names the CLI evaluates and prints.
	Outputs []string `yaml:"outputs,omitempty"`
}

// Node is one declared holder.
type Node struct {
	Name string   `yaml:"name"`
	Kind NodeKind `yaml:"kind"`

	// Value is the initial value for volatile, immutable and property
	// nodes.
	Value int64 `yaml:"value,omitempty"`

	// Op is the aggregation for vector nodes.
	Op Op `yaml:"op,omitempty"`

	// Deps are the upstream names for vector and latest nodes.
	Deps []string `yaml:"deps,omitempty"`

	// Target is the alias target name.
	Target string `yaml:"target,omitempty"`

	// Source is the cache/frozen source name.
	Source string `yaml:"source,omitempty"`

	// Connect optionally names the external feed of a property node.
	Connect string `yaml:"connect,omitempty"`
}

// Parse decodes, schema-checks and semantically validates a graph
// document. Node names and references are NFC-normalized.
func Parse(data []byte) (*Definition, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode graph definition: %w", err)
	}

	def.canonicalize()
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// canonicalize NFC-normalizes every node name and reference, so that a
// name typed with combining characters matches its precomposed form.
func (d *Definition) canonicalize() {
	d.Name = norm.NFC.String(d.Name)
	for i := range d.Nodes {
		n := &d.Nodes[i]
		n.Name = norm.NFC.String(n.Name)
		n.Target = norm.NFC.String(n.Target)
		n.Source = norm.NFC.String(n.Source)
		n.Connect = norm.NFC.String(n.Connect)
		for j, dep := range n.Deps {
			n.Deps[j] = norm.NFC.String(dep)
		}
	}
	for i, out := range d.Outputs {
		d.Outputs[i] = norm.NFC.String(out)
	}
}
