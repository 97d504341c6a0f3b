package runtime

import (
	"fmt"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// Namespace is an ordered mapping of compiled top-level names to values:
// classes, functions, and top-level assignments.
type Namespace struct {
	names *types.OrderedMap
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{names: types.NewOrderedMap()}
}

// Get retrieves a binding by name.
func (n *Namespace) Get(name string) (types.Value, bool) {
	return n.names.Get(name)
}

// Set adds or replaces a binding.
func (n *Namespace) Set(name string, value types.Value) {
	n.names.Set(name, value)
}

// Names returns the bound names in definition order.
func (n *Namespace) Names() []string {
	return n.names.Keys()
}

// Len returns the number of bindings.
func (n *Namespace) Len() int {
	return n.names.Len()
}

// Lookup implements the Lookup interface, so a namespace can back the root
// scope of later compilations.
func (n *Namespace) Lookup(name string) (types.Value, bool) {
	return n.names.Get(name)
}

// Call invokes a compiled function or class bound in the namespace.
func (n *Namespace) Call(name string, args []types.Value) (types.Value, error) {
	v, ok := n.Get(name)
	if !ok {
		return types.Null, types.NewNameError(name)
	}
	if v.Type() != types.TypeFunc {
		return types.Null, types.NewTypeError(fmt.Sprintf("%q is not callable", name))
	}
	return v.AsFunc().Call(args)
}

// Compile materializes a program into a fresh namespace. Definitions are
// processed in program order; later definitions may reference earlier ones
// and the builtin fallback.
func Compile(prog *ast.Program, builtins Lookup) (*Namespace, error) {
	ns := NewNamespace()
	if err := CompileInto(prog, builtins, ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// CompileInto materializes a program and merges the resulting bindings into
// target, overwriting collisions. Injection is atomic: if any top-level
// assignment fails to evaluate, target is left untouched. Compiled code
// resolves free names against target's existing bindings, then builtins.
func CompileInto(prog *ast.Program, builtins Lookup, target *Namespace) error {
	root := NewScope(lookups{target, builtins})

	var order []string
	for _, node := range prog.Nodes {
		switch n := node.(type) {
		case *ast.FunctionDef:
			root.Set(n.Name, types.NewFunc(&Function{def: n, defined: root}))
			order = append(order, n.Name)

		case *ast.ClassDef:
			root.Set(n.Name, types.NewFunc(newClass(n, root)))
			order = append(order, n.Name)

		case *ast.Assign:
			val, err := expr.Evaluate(n.Value, root)
			if err != nil {
				return err
			}
			root.Set(n.Target.Name, val)
			order = append(order, n.Target.Name)

		default:
			return fmt.Errorf("unsupported top-level node type: %T", node)
		}
	}

	for _, name := range order {
		v, err := root.Get(name)
		if err != nil {
			return err
		}
		target.Set(name, v)
	}
	return nil
}
