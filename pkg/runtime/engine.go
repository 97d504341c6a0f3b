package runtime

import (
	"fmt"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// FlowControl represents flow control signals during statement execution.
type FlowControl int

const (
	FlowNone   FlowControl = iota
	FlowReturn             // unwind to the enclosing function call
)

// StmtResult is the result of executing a statement or block.
type StmtResult struct {
	Flow  FlowControl
	Value types.Value // return value for FlowReturn
}

// execBlock runs a statement block. A return inside the block stops
// execution and propagates outward until a function call boundary.
func execBlock(block ast.Block, scope *Scope) (StmtResult, error) {
	for _, stmt := range block {
		result, err := execStmt(stmt, scope)
		if err != nil {
			return StmtResult{}, err
		}
		if result.Flow == FlowReturn {
			return result, nil
		}
	}
	return StmtResult{}, nil
}

// execStmt runs a single statement.
func execStmt(stmt ast.Stmt, scope *Scope) (StmtResult, error) {
	switch st := stmt.(type) {
	case *ast.Assign:
		return StmtResult{}, execAssign(st, scope)

	case *ast.Return:
		val, err := expr.Evaluate(st.Value, scope)
		if err != nil {
			return StmtResult{}, err
		}
		return StmtResult{Flow: FlowReturn, Value: val}, nil

	case *ast.If:
		for _, branch := range st.Branches {
			cond, err := expr.Evaluate(branch.Cond, scope)
			if err != nil {
				return StmtResult{}, err
			}
			if cond.Truthy() {
				return execBlock(branch.Body, scope)
			}
		}
		if st.HasElse {
			return execBlock(st.Else, scope)
		}
		return StmtResult{}, nil

	case *ast.For:
		iterable, err := expr.Evaluate(st.Iterable, scope)
		if err != nil {
			return StmtResult{}, err
		}
		items, err := iterate(iterable)
		if err != nil {
			return StmtResult{}, err
		}
		// The loop body shares the function frame: the loop variable and
		// anything assigned inside the body stay visible after the loop.
		for _, item := range items {
			scope.Set(st.Var, item)
			result, err := execBlock(st.Body, scope)
			if err != nil {
				return StmtResult{}, err
			}
			if result.Flow == FlowReturn {
				return result, nil
			}
		}
		return StmtResult{}, nil

	default:
		return StmtResult{}, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// iterate materializes an iterable value: list elements, map keys in
// insertion order, or the characters of a string.
func iterate(v types.Value) ([]types.Value, error) {
	switch v.Type() {
	case types.TypeList:
		return v.AsList(), nil
	case types.TypeMap:
		keys := v.AsMap().Keys()
		items := make([]types.Value, len(keys))
		for i, k := range keys {
			items[i] = types.NewString(k)
		}
		return items, nil
	case types.TypeString:
		s := v.AsString()
		items := make([]types.Value, 0, len(s))
		for _, r := range s {
			items = append(items, types.NewString(string(r)))
		}
		return items, nil
	default:
		return nil, types.NewTypeError(fmt.Sprintf("%s value is not iterable", v.Type()))
	}
}

// execAssign evaluates the value and writes it to the target: a plain name
// binds in the current frame; an attribute path resolves the base name,
// walks to the last attribute's holder, and writes there.
func execAssign(st *ast.Assign, scope *Scope) error {
	val, err := expr.Evaluate(st.Value, scope)
	if err != nil {
		return err
	}

	if len(st.Target.Path) == 0 {
		scope.Set(st.Target.Name, val)
		return nil
	}

	current, err := scope.Get(st.Target.Name)
	if err != nil {
		return err
	}
	for _, attr := range st.Target.Path[:len(st.Target.Path)-1] {
		current, err = getAttr(current, attr)
		if err != nil {
			return err
		}
	}
	return setAttr(current, st.Target.Path[len(st.Target.Path)-1], val)
}

// getAttr reads an intermediate attribute on the assignment path.
func getAttr(v types.Value, name string) (types.Value, error) {
	switch v.Type() {
	case types.TypeObject:
		o := v.AsObject()
		if val, ok := o.Attrs.Get(name); ok {
			return val, nil
		}
		return types.Null, types.NewAttributeError(fmt.Sprintf(
			"'%s' object has no attribute '%s'", o.Class.ClassName(), name))
	case types.TypeMap:
		val, ok := v.AsMap().Get(name)
		if !ok {
			return types.Null, types.NewKeyError(fmt.Sprintf("key '%s' not found in map", name))
		}
		return val, nil
	default:
		return types.Null, types.NewAttributeError(fmt.Sprintf(
			"cannot access attribute '%s' on %s", name, v.Type()))
	}
}

// setAttr writes the final attribute of the assignment path. Objects and
// maps accept new keys; anything else cannot hold attributes.
func setAttr(v types.Value, name string, val types.Value) error {
	switch v.Type() {
	case types.TypeObject:
		v.AsObject().Attrs.Set(name, val)
		return nil
	case types.TypeMap:
		v.AsMap().Set(name, val)
		return nil
	default:
		return types.NewAttributeError(fmt.Sprintf(
			"cannot assign attribute '%s' on %s", name, v.Type()))
	}
}
