package graphdef

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// DefError reports an invalid graph definition.
type DefError struct {
	Code    string
	Node    string // node name, when the error is node-scoped
	Message string
}

func (e *DefError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: node %q: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants for graph definition validation.
const (
	ErrCodeSchema     = "G001" // document fails the CUE schema
	ErrCodeDuplicate  = "G002" // duplicate node name
	ErrCodeUnknownRef = "G003" // reference to an undeclared node
	ErrCodeMissing    = "G004" // kind is missing a required field
	ErrCodeNoNodes    = "G005" // empty node list
)

// ValidateSchema checks a YAML document against the embedded CUE schema.
func ValidateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &DefError{Code: ErrCodeSchema, Message: fmt.Sprintf("not valid YAML: %v", err)}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile graph schema: %w", err)
	}

	defSchema := schema.LookupPath(cue.ParsePath("#Definition"))
	if err := defSchema.Err(); err != nil {
		return fmt.Errorf("lookup #Definition: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return &DefError{Code: ErrCodeSchema, Message: fmt.Sprintf("encode document: %v", err)}
	}

	unified := defSchema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &DefError{
			Code:    ErrCodeSchema,
			Message: cueerrors.Details(err, nil),
		}
	}
	return nil
}

// validate enforces the semantic rules the schema cannot express: unique
// names, references to already-declared nodes, per-kind required fields.
func (d *Definition) validate() error {
	if len(d.Nodes) == 0 {
		return &DefError{Code: ErrCodeNoNodes, Message: "graph declares no nodes"}
	}

	declared := make(map[string]bool, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if declared[n.Name] {
			return &DefError{Code: ErrCodeDuplicate, Node: n.Name, Message: "declared twice"}
		}

		if err := n.validate(declared); err != nil {
			return err
		}
		declared[n.Name] = true
	}

	for _, out := range d.Outputs {
		if !declared[out] {
			return &DefError{Code: ErrCodeUnknownRef, Node: out, Message: "output references undeclared node"}
		}
	}
	return nil
}

// validate checks one node against the set of names declared before it.
func (n *Node) validate(declared map[string]bool) error {
	requireRef := func(field, name string) error {
		if name == "" {
			return &DefError{Code: ErrCodeMissing, Node: n.Name,
				Message: fmt.Sprintf("kind %q requires %s", n.Kind, field)}
		}
		if !declared[name] {
			return &DefError{Code: ErrCodeUnknownRef, Node: n.Name,
				Message: fmt.Sprintf("%s references undeclared node %q", field, name)}
		}
		return nil
	}

	switch n.Kind {
	case KindVolatile, KindImmutable:
		// Value defaults to zero; nothing further to check.
		return nil

	case KindVector:
		if n.Op == "" {
			return &DefError{Code: ErrCodeMissing, Node: n.Name, Message: `kind "vector" requires op`}
		}
		fallthrough

	case KindLatest:
		if len(n.Deps) == 0 {
			return &DefError{Code: ErrCodeMissing, Node: n.Name,
				Message: fmt.Sprintf("kind %q requires at least one dep", n.Kind)}
		}
		for _, dep := range n.Deps {
			if !declared[dep] {
				return &DefError{Code: ErrCodeUnknownRef, Node: n.Name,
					Message: fmt.Sprintf("dep references undeclared node %q", dep)}
			}
		}
		return nil

	case KindAlias:
		return requireRef("target", n.Target)

	case KindCache, KindFrozen:
		return requireRef("source", n.Source)

	case KindProperty:
		if n.Connect != "" {
			return requireRef("connect", n.Connect)
		}
		return nil

	default:
		return &DefError{Code: ErrCodeSchema, Node: n.Name,
			Message: fmt.Sprintf("unknown kind %q", n.Kind)}
	}
}
