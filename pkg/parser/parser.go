// Package parser converts YAML scripts into programs by driving a builder
// chain, so scripts are checked by the same scope discipline as
// programmatically built chains.
package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/builder"
	"github.com/jbvsmo/funcbuilder/pkg/expr"
)

// MaxSourceSize is the maximum script source size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

// ParseError represents an error encountered during script parsing.
type ParseError struct {
	Message string
	Line    int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func errAt(node *yaml.Node, format string, args ...interface{}) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: node.Line}
}

// Parse parses a YAML script into a finished program. Structural and scope
// violations surface as the builder's StructuralError/ScopeError.
func Parse(source []byte) (*ast.Program, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf(
			"script size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty script"}
	}

	root := raw.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, errAt(root, "script must be a sequence of classes, functions, and assignments")
	}

	s := builder.New()
	for _, item := range root.Content {
		var err error
		s, err = parseTopLevel(s, item)
		if err != nil {
			return nil, err
		}
	}
	return s.Finish()
}

// findKey returns the value node for a mapping key, or nil.
func findKey(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func parseTopLevel(s *builder.Session, item *yaml.Node) (*builder.Session, error) {
	if item.Kind != yaml.MappingNode {
		return s, errAt(item, "top-level item must be a mapping")
	}
	switch {
	case findKey(item, "class") != nil:
		return parseClass(s, item)
	case findKey(item, "def") != nil:
		return parseDef(s, item)
	case findKey(item, "set") != nil:
		return parseSet(s, findKey(item, "set"))
	default:
		return s, errAt(item, "top-level item must be 'class', 'def', or 'set'")
	}
}

func parseClass(s *builder.Session, item *yaml.Node) (*builder.Session, error) {
	nameNode := findKey(item, "class")
	if nameNode.Kind != yaml.ScalarNode {
		return s, errAt(nameNode, "class name must be a string")
	}
	s = s.Class(nameNode.Value)

	if methods := findKey(item, "methods"); methods != nil {
		if methods.Kind != yaml.SequenceNode {
			return s, errAt(methods, "'methods' must be a sequence")
		}
		for _, m := range methods.Content {
			var err error
			s, err = parseDef(s, m)
			if err != nil {
				return s, err
			}
		}
	}
	return s.End(), nil
}

func parseDef(s *builder.Session, item *yaml.Node) (*builder.Session, error) {
	nameNode := findKey(item, "def")
	if nameNode == nil || nameNode.Kind != yaml.ScalarNode {
		return s, errAt(item, "'def' requires a function name")
	}

	var params []string
	if paramsNode := findKey(item, "params"); paramsNode != nil {
		if paramsNode.Kind != yaml.SequenceNode {
			return s, errAt(paramsNode, "'params' must be a sequence of names")
		}
		for _, p := range paramsNode.Content {
			if p.Kind != yaml.ScalarNode {
				return s, errAt(p, "parameter name must be a string")
			}
			params = append(params, p.Value)
		}
	}

	s = s.Def(nameNode.Value, params...)
	var err error
	s, err = parseBody(s, findKey(item, "body"))
	if err != nil {
		return s, err
	}
	return s.End(), nil
}

func parseBody(s *builder.Session, body *yaml.Node) (*builder.Session, error) {
	if body == nil {
		return s, nil
	}
	if body.Kind != yaml.SequenceNode {
		return s, errAt(body, "'body' must be a sequence of statements")
	}
	for _, stmt := range body.Content {
		var err error
		s, err = parseStmt(s, stmt)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func parseStmt(s *builder.Session, stmt *yaml.Node) (*builder.Session, error) {
	if stmt.Kind != yaml.MappingNode {
		return s, errAt(stmt, "statement must be a mapping")
	}
	switch {
	case findKey(stmt, "set") != nil:
		return parseSet(s, findKey(stmt, "set"))
	case findKey(stmt, "return") != nil:
		value, err := parseExpr(findKey(stmt, "return"))
		if err != nil {
			return s, err
		}
		return s.Ret(value), nil
	case findKey(stmt, "if") != nil:
		return parseIf(s, findKey(stmt, "if"))
	case findKey(stmt, "for") != nil:
		return parseFor(s, findKey(stmt, "for"))
	default:
		return s, errAt(stmt, "statement must be 'set', 'return', 'if', or 'for'")
	}
}

// parseSet handles the single-target assignment form. A dotted target
// selects attribute assignment.
func parseSet(s *builder.Session, val *yaml.Node) (*builder.Session, error) {
	if val.Kind != yaml.MappingNode || len(val.Content) != 2 {
		return s, errAt(val, "'set' takes exactly one target")
	}
	target := val.Content[0].Value
	value, err := parseExpr(val.Content[1])
	if err != nil {
		return s, err
	}
	if obj, attr, ok := strings.Cut(target, "."); ok {
		return s.SetAttr(obj, attr, value), nil
	}
	return s.Set(target, value), nil
}

func parseIf(s *builder.Session, val *yaml.Node) (*builder.Session, error) {
	if val.Kind != yaml.SequenceNode || len(val.Content) == 0 {
		return s, errAt(val, "'if' must be a sequence of branches")
	}

	for i, branch := range val.Content {
		if branch.Kind != yaml.MappingNode {
			return s, errAt(branch, "branch must be a mapping")
		}

		if elseBody := findKey(branch, "else"); elseBody != nil {
			if i != len(val.Content)-1 {
				return s, errAt(branch, "'else' must be the last branch")
			}
			s = s.Else()
			var err error
			s, err = parseBody(s, elseBody)
			if err != nil {
				return s, err
			}
			continue
		}

		condNode := findKey(branch, "cond")
		if condNode == nil {
			return s, errAt(branch, "branch requires 'cond' or 'else'")
		}
		cond, err := parseExpr(condNode)
		if err != nil {
			return s, err
		}
		if i == 0 {
			s = s.If(cond)
		} else {
			s = s.Elif(cond)
		}
		s, err = parseBody(s, findKey(branch, "body"))
		if err != nil {
			return s, err
		}
	}
	return s.End(), nil
}

func parseFor(s *builder.Session, val *yaml.Node) (*builder.Session, error) {
	varNode := findKey(val, "var")
	inNode := findKey(val, "in")
	if varNode == nil || varNode.Kind != yaml.ScalarNode || inNode == nil {
		return s, errAt(val, "'for' requires 'var' and 'in'")
	}
	iterable, err := parseExpr(inNode)
	if err != nil {
		return s, err
	}
	s = s.For(varNode.Value, iterable)
	s, err = parseBody(s, findKey(val, "body"))
	if err != nil {
		return s, err
	}
	return s.End(), nil
}

// parseExpr decodes a YAML value and converts it: ${...} scalars parse as
// expressions, everything else is a literal.
func parseExpr(node *yaml.Node) (expr.Node, error) {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return nil, errAt(node, "invalid value: %v", err)
	}
	parsed, err := expr.ParseValue(v)
	if err != nil {
		return nil, errAt(node, "%v", err)
	}
	return parsed, nil
}
