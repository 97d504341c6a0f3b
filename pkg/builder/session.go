// Package builder implements the program chain: a persistent builder that
// assembles statements into an ast.Program under scope-stack discipline.
// Every operation returns a new session and never mutates its receiver, so
// a chain prefix can be branched into independent programs.
package builder

import (
	"fmt"
	"strings"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

type frameKind int

const (
	frameTopLevel frameKind = iota
	frameClassBody
	frameFunctionBody
	frameIfChain
	frameForBody
)

func (k frameKind) String() string {
	switch k {
	case frameTopLevel:
		return "top level"
	case frameClassBody:
		return "class body"
	case frameFunctionBody:
		return "function body"
	case frameIfChain:
		return "if chain"
	case frameForBody:
		return "for body"
	default:
		return "unknown"
	}
}

// frame is one level of the open-construct stack. Frames are immutable:
// appending to an accumulator clones the frame, and parent links are shared
// between sessions branched from a common prefix.
type frame struct {
	kind   frameKind
	parent *frame

	// top-level accumulator
	nodes []ast.Node

	// class body
	className string
	methods   []*ast.FunctionDef

	// function body; stmts doubles as the statement accumulator for
	// for bodies and the open branch of an if chain
	funcName string
	params   []string
	stmts    []ast.Stmt

	// if chain: closed branches plus the condition of the open branch;
	// inElse marks that stmts now accumulate the else block
	branches []ast.Branch
	cond     expr.Node
	inElse   bool

	// for body
	loopVar  string
	iterable expr.Node
}

func (f *frame) clone() *frame {
	c := *f
	return &c
}

// appendStmt returns a copy of f with stmt added to its statement
// accumulator. The capped slice keeps branched sessions independent.
func (f *frame) appendStmt(stmt ast.Stmt) *frame {
	c := f.clone()
	c.stmts = append(f.stmts[:len(f.stmts):len(f.stmts)], stmt)
	return c
}

func (f *frame) appendNode(node ast.Node) *frame {
	c := f.clone()
	c.nodes = append(f.nodes[:len(f.nodes):len(f.nodes)], node)
	return c
}

func (f *frame) appendMethod(m *ast.FunctionDef) *frame {
	c := f.clone()
	c.methods = append(f.methods[:len(f.methods):len(f.methods)], m)
	return c
}

// inFunction reports whether statements may be emitted into this frame.
func (f *frame) inFunction() bool {
	return f.kind == frameFunctionBody || f.kind == frameIfChain || f.kind == frameForBody
}

// Session is one state of a program chain. The zero session is not usable;
// start with New. Errors are sticky: once an operation fails, every later
// operation is a no-op and Finish reports the first error.
type Session struct {
	top *frame
	err error
}

// New starts an empty chain at top level.
func New() *Session {
	return &Session{top: &frame{kind: frameTopLevel}}
}

func (s *Session) fail(err error) *Session {
	return &Session{top: s.top, err: err}
}

// Err returns the first error recorded on the chain, if any.
func (s *Session) Err() error {
	return s.err
}

// Class opens a class body. Classes may only be declared at top level.
func (s *Session) Class(name string) *Session {
	if s.err != nil {
		return s
	}
	if s.top.kind != frameTopLevel {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("class %q cannot be declared in a %s", name, s.top.kind)))
	}
	return &Session{top: &frame{kind: frameClassBody, parent: s.top, className: name}}
}

// Def opens a function body, at top level or as a method inside a class
// body. Redefining a method name within one class is a ScopeError.
func (s *Session) Def(name string, params ...string) *Session {
	if s.err != nil {
		return s
	}
	switch s.top.kind {
	case frameTopLevel:
	case frameClassBody:
		for _, m := range s.top.methods {
			if m.Name == name {
				return s.fail(types.NewScopeError(
					fmt.Sprintf("method %q already defined in class %q", name, s.top.className)))
			}
		}
	default:
		return s.fail(types.NewScopeError(
			fmt.Sprintf("def %q cannot appear in a %s", name, s.top.kind)))
	}
	return &Session{top: &frame{
		kind:     frameFunctionBody,
		parent:   s.top,
		funcName: name,
		params:   params[:len(params):len(params)],
	}}
}

// Set binds the value of an expression to a name, inside a function body
// or at top level. Class bodies hold only method definitions.
func (s *Session) Set(name string, value expr.Node) *Session {
	if s.err != nil {
		return s
	}
	stmt := &ast.Assign{Target: ast.Target{Name: name}, Value: value}
	if s.top.kind == frameTopLevel {
		return &Session{top: s.top.appendNode(stmt)}
	}
	if !s.top.inFunction() {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("set %q cannot appear in a %s", name, s.top.kind)))
	}
	return &Session{top: s.top.appendStmt(stmt)}
}

// SetAttr assigns through an attribute path, e.g. SetAttr("self", "x", v)
// for self.x = v. The attribute may be dotted for deeper paths. Attribute
// assignment is only legal inside a function body.
func (s *Session) SetAttr(obj, attr string, value expr.Node) *Session {
	if s.err != nil {
		return s
	}
	if !s.top.inFunction() {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("attribute assignment %s.%s cannot appear in a %s", obj, attr, s.top.kind)))
	}
	stmt := &ast.Assign{
		Target: ast.Target{Name: obj, Path: strings.Split(attr, ".")},
		Value:  value,
	}
	return &Session{top: s.top.appendStmt(stmt)}
}

// If opens a conditional chain inside a function body.
func (s *Session) If(cond expr.Node) *Session {
	if s.err != nil {
		return s
	}
	if !s.top.inFunction() {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("if cannot appear in a %s", s.top.kind)))
	}
	return &Session{top: &frame{kind: frameIfChain, parent: s.top, cond: cond}}
}

// Elif closes the open branch and starts a new one. Only legal directly
// atop an if chain that has no else yet.
func (s *Session) Elif(cond expr.Node) *Session {
	if s.err != nil {
		return s
	}
	if s.top.kind != frameIfChain {
		return s.fail(types.NewScopeError("elif without a matching if"))
	}
	if s.top.inElse {
		return s.fail(types.NewScopeError("elif cannot follow else"))
	}
	c := s.top.clone()
	c.branches = append(s.top.branches[:len(s.top.branches):len(s.top.branches)],
		ast.Branch{Cond: s.top.cond, Body: ast.Block(s.top.stmts)})
	c.cond = cond
	c.stmts = nil
	return &Session{top: c}
}

// Else closes the open branch and starts the else block. At most one else
// per chain.
func (s *Session) Else() *Session {
	if s.err != nil {
		return s
	}
	if s.top.kind != frameIfChain {
		return s.fail(types.NewScopeError("else without a matching if"))
	}
	if s.top.inElse {
		return s.fail(types.NewScopeError("duplicate else in if chain"))
	}
	c := s.top.clone()
	c.branches = append(s.top.branches[:len(s.top.branches):len(s.top.branches)],
		ast.Branch{Cond: s.top.cond, Body: ast.Block(s.top.stmts)})
	c.cond = nil
	c.stmts = nil
	c.inElse = true
	return &Session{top: c}
}

// For opens a loop body inside a function body. The loop variable is
// rebound in the enclosing function frame on each iteration.
func (s *Session) For(loopVar string, iterable expr.Node) *Session {
	if s.err != nil {
		return s
	}
	if !s.top.inFunction() {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("for cannot appear in a %s", s.top.kind)))
	}
	return &Session{top: &frame{kind: frameForBody, parent: s.top, loopVar: loopVar, iterable: iterable}}
}

// Ret emits a return statement inside a function body.
func (s *Session) Ret(value expr.Node) *Session {
	if s.err != nil {
		return s
	}
	if !s.top.inFunction() {
		return s.fail(types.NewScopeError(
			fmt.Sprintf("return cannot appear in a %s", s.top.kind)))
	}
	return &Session{top: s.top.appendStmt(&ast.Return{Value: value})}
}

// End closes the innermost open construct and appends it to the enclosing
// accumulator. Ending with nothing open is a StructuralError.
func (s *Session) End() *Session {
	if s.err != nil {
		return s
	}
	f := s.top
	switch f.kind {
	case frameTopLevel:
		return s.fail(types.NewStructuralError("end with no open construct"))

	case frameClassBody:
		def := &ast.ClassDef{Name: f.className, Methods: f.methods}
		return &Session{top: f.parent.appendNode(def)}

	case frameFunctionBody:
		def := &ast.FunctionDef{Name: f.funcName, Params: f.params, Body: ast.Block(f.stmts)}
		if f.parent.kind == frameClassBody {
			return &Session{top: f.parent.appendMethod(def)}
		}
		return &Session{top: f.parent.appendNode(def)}

	case frameIfChain:
		stmt := &ast.If{}
		if f.inElse {
			stmt.Branches = f.branches
			stmt.Else = ast.Block(f.stmts)
			stmt.HasElse = true
		} else {
			stmt.Branches = append(f.branches[:len(f.branches):len(f.branches)],
				ast.Branch{Cond: f.cond, Body: ast.Block(f.stmts)})
		}
		return &Session{top: f.parent.appendStmt(stmt)}

	case frameForBody:
		stmt := &ast.For{Var: f.loopVar, Iterable: f.iterable, Body: ast.Block(f.stmts)}
		return &Session{top: f.parent.appendStmt(stmt)}
	}
	return s.fail(types.NewStructuralError("end in unknown construct"))
}

// Finish seals the chain and returns the finished program. All constructs
// must be closed.
func (s *Session) Finish() (*ast.Program, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.top.kind != frameTopLevel {
		return nil, types.NewStructuralError(
			fmt.Sprintf("finish with an open %s", s.top.kind))
	}
	return &ast.Program{Nodes: s.top.nodes}, nil
}
