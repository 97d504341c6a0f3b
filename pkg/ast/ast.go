// Package ast defines the statement-level program model produced by the
// chain builder and consumed by the runtime compiler.
package ast

import "github.com/jbvsmo/funcbuilder/pkg/expr"

// Node is a top-level program element: ClassDef, FunctionDef, or Assign.
type Node interface {
	nodeType() string
}

// Stmt is a statement inside a function body.
type Stmt interface {
	stmtType() string
}

// Block is an ordered sequence of statements.
type Block []Stmt

// Target identifies the destination of an assignment. An empty Path binds
// Name in the current frame; a non-empty Path resolves Name, walks the
// attribute path up to its last element, and writes the final attribute.
type Target struct {
	Name string
	Path []string
}

// Assign binds the value of an expression to a target.
type Assign struct {
	Target Target
	Value  expr.Node
}

func (s *Assign) stmtType() string { return "Assign" }
func (s *Assign) nodeType() string { return "Assign" }

// Return ends the enclosing function call with the value of an expression.
type Return struct {
	Value expr.Node
}

func (s *Return) stmtType() string { return "Return" }

// Branch is one condition/body pair of an if chain.
type Branch struct {
	Cond expr.Node
	Body Block
}

// If is a chain of condition branches with an optional else block.
type If struct {
	Branches []Branch
	Else     Block
	HasElse  bool
}

func (s *If) stmtType() string { return "If" }

// For iterates a body with the loop variable rebound to each element of the
// iterable in turn.
type For struct {
	Var      string
	Iterable expr.Node
	Body     Block
}

func (s *For) stmtType() string { return "For" }

// FunctionDef declares a named function with positional parameters.
type FunctionDef struct {
	Name   string
	Params []string
	Body   Block
}

func (d *FunctionDef) nodeType() string { return "FunctionDef" }

// ClassDef declares a named class. Method names are unique within the
// class and keep their declaration order.
type ClassDef struct {
	Name    string
	Methods []*FunctionDef
}

func (d *ClassDef) nodeType() string { return "ClassDef" }

// Program is a finished sequence of top-level definitions and assignments.
type Program struct {
	Nodes []Node
}
