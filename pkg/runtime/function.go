package runtime

import (
	"fmt"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// Function is a compiled function definition. Each call binds its
// parameters in a fresh frame chained to the defining scope, so recursion
// and sibling references resolve through the namespace that compiled it.
type Function struct {
	def     *ast.FunctionDef
	defined *Scope
}

// Name implements types.Callable.
func (f *Function) Name() string { return f.def.Name }

// Params returns the parameter names in declaration order.
func (f *Function) Params() []string { return f.def.Params }

// Call implements types.Callable. Arity is checked strictly.
func (f *Function) Call(args []types.Value) (types.Value, error) {
	if len(args) != len(f.def.Params) {
		return types.Null, types.NewTypeError(fmt.Sprintf(
			"%s() takes %d arguments (%d given)", f.def.Name, len(f.def.Params), len(args)))
	}

	frame := f.defined.NewChild()
	for i, param := range f.def.Params {
		frame.Set(param, args[i])
	}

	result, err := execBlock(f.def.Body, frame)
	if err != nil {
		return types.Null, err
	}
	if result.Flow == FlowReturn {
		return result.Value, nil
	}
	// Falling off the end of a function returns null
	return types.Null, nil
}

// Class is a compiled class definition. Calling it constructs an instance;
// attribute access on instances binds methods through it.
type Class struct {
	def     *ast.ClassDef
	methods map[string]*Function
	order   []string
}

func newClass(def *ast.ClassDef, defined *Scope) *Class {
	c := &Class{
		def:     def,
		methods: make(map[string]*Function, len(def.Methods)),
	}
	for _, m := range def.Methods {
		c.methods[m.Name] = &Function{def: m, defined: defined}
		c.order = append(c.order, m.Name)
	}
	return c
}

// Name implements types.Callable.
func (c *Class) Name() string { return c.def.Name }

// ClassName implements types.ObjectClass.
func (c *Class) ClassName() string { return c.def.Name }

// Methods returns the method names in declaration order.
func (c *Class) Methods() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Bind implements types.ObjectClass: it resolves a method by name and
// returns it bound to self.
func (c *Class) Bind(name string, self types.Value) (types.Value, bool) {
	m, ok := c.methods[name]
	if !ok {
		return types.Null, false
	}
	return types.NewFunc(&BoundMethod{fn: m, self: self}), true
}

// Call implements types.Callable: it constructs a fresh instance and runs
// __init__ with the instance prepended to the arguments. The return value
// of __init__ is discarded.
func (c *Class) Call(args []types.Value) (types.Value, error) {
	obj := types.NewObjectValue(types.NewObject(c))

	if init, ok := c.methods["__init__"]; ok {
		callArgs := make([]types.Value, 0, len(args)+1)
		callArgs = append(callArgs, obj)
		callArgs = append(callArgs, args...)
		if _, err := init.Call(callArgs); err != nil {
			return types.Null, err
		}
	} else if len(args) != 0 {
		return types.Null, types.NewTypeError(fmt.Sprintf(
			"%s() takes no arguments (%d given)", c.def.Name, len(args)))
	}

	return obj, nil
}

// BoundMethod pairs a class method with a receiver. Calling it prepends
// the receiver to the argument list.
type BoundMethod struct {
	fn   *Function
	self types.Value
}

// Name implements types.Callable.
func (b *BoundMethod) Name() string { return b.fn.Name() }

// Call implements types.Callable.
func (b *BoundMethod) Call(args []types.Value) (types.Value, error) {
	callArgs := make([]types.Value, 0, len(args)+1)
	callArgs = append(callArgs, b.self)
	callArgs = append(callArgs, args...)
	return b.fn.Call(callArgs)
}
