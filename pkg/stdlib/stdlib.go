// Package stdlib provides the builtin function registry resolved as the
// outermost binding frame of every compiled program.
package stdlib

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// builtin wraps a Go function as a types.Callable.
type builtin struct {
	name string
	fn   func(args []types.Value) (types.Value, error)
}

func (b *builtin) Name() string { return b.name }

func (b *builtin) Call(args []types.Value) (types.Value, error) {
	return b.fn(args)
}

// Registry holds named builtin functions. It satisfies the runtime's
// fallback Lookup interface, so unresolved names in compiled code land here.
type Registry struct {
	funcs map[string]types.Value
}

// NewRegistry creates a registry with the standard builtins installed.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]types.Value)}
	r.Register("len", builtinLen)
	r.Register("abs", builtinAbs)
	r.Register("str", builtinStr)
	r.Register("repr", builtinRepr)
	r.Register("int", builtinInt)
	r.Register("float", builtinFloat)
	r.Register("bool", builtinBool)
	r.Register("type", builtinType)
	r.Register("range", builtinRange)
	r.Register("sum", builtinSum)
	r.Register("min", builtinMin)
	r.Register("max", builtinMax)
	return r
}

// Register installs a builtin under the given name, replacing any previous
// binding.
func (r *Registry) Register(name string, fn func(args []types.Value) (types.Value, error)) {
	r.funcs[name] = types.NewFunc(&builtin{name: name, fn: fn})
}

// Lookup resolves a builtin by name.
func (r *Registry) Lookup(name string) (types.Value, bool) {
	v, ok := r.funcs[name]
	return v, ok
}

// Names returns the registered builtin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wantArgs checks an exact argument count.
func wantArgs(name string, args []types.Value, n int) error {
	if len(args) != n {
		return types.NewTypeError(fmt.Sprintf("%s() takes %d arguments (%d given)", name, n, len(args)))
	}
	return nil
}

func builtinLen(args []types.Value) (types.Value, error) {
	if err := wantArgs("len", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeString:
		return types.NewInt(int64(utf8.RuneCountInString(args[0].AsString()))), nil
	case types.TypeList:
		return types.NewInt(int64(len(args[0].AsList()))), nil
	case types.TypeMap:
		return types.NewInt(int64(args[0].AsMap().Len())), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("%s value has no length", args[0].Type()))
	}
}

func builtinAbs(args []types.Value) (types.Value, error) {
	if err := wantArgs("abs", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeInt:
		v := args[0].AsInt()
		if v < 0 {
			v = -v
		}
		return types.NewInt(v), nil
	case types.TypeDouble:
		return types.NewDouble(math.Abs(args[0].AsDouble())), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("abs() requires a number, got %s", args[0].Type()))
	}
}

func builtinStr(args []types.Value) (types.Value, error) {
	if err := wantArgs("str", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].String()), nil
}

func builtinRepr(args []types.Value) (types.Value, error) {
	if err := wantArgs("repr", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].Repr()), nil
}

func builtinInt(args []types.Value) (types.Value, error) {
	if err := wantArgs("int", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeInt:
		return args[0], nil
	case types.TypeDouble:
		return types.NewInt(int64(math.Trunc(args[0].AsDouble()))), nil
	case types.TypeBool:
		if args[0].AsBool() {
			return types.NewInt(1), nil
		}
		return types.NewInt(0), nil
	case types.TypeString:
		s := strings.TrimSpace(args[0].AsString())
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return types.Null, types.NewValueError(
				fmt.Sprintf("invalid literal for int(): %q", args[0].AsString()))
		}
		return types.NewInt(i), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("int() cannot convert %s", args[0].Type()))
	}
}

func builtinFloat(args []types.Value) (types.Value, error) {
	if err := wantArgs("float", args, 1); err != nil {
		return types.Null, err
	}
	switch args[0].Type() {
	case types.TypeDouble:
		return args[0], nil
	case types.TypeInt:
		return types.NewDouble(float64(args[0].AsInt())), nil
	case types.TypeBool:
		if args[0].AsBool() {
			return types.NewDouble(1), nil
		}
		return types.NewDouble(0), nil
	case types.TypeString:
		s := strings.TrimSpace(args[0].AsString())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Null, types.NewValueError(
				fmt.Sprintf("invalid literal for float(): %q", args[0].AsString()))
		}
		return types.NewDouble(f), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("float() cannot convert %s", args[0].Type()))
	}
}

func builtinBool(args []types.Value) (types.Value, error) {
	if err := wantArgs("bool", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewBool(args[0].Truthy()), nil
}

func builtinType(args []types.Value) (types.Value, error) {
	if err := wantArgs("type", args, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].Type().String()), nil
}

// builtinRange implements range(stop), range(start, stop), and
// range(start, stop, step), materialized as a list.
func builtinRange(args []types.Value) (types.Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return types.Null, types.NewTypeError(
			fmt.Sprintf("range() takes 1 to 3 arguments (%d given)", len(args)))
	}
	nums := make([]int64, len(args))
	for i, a := range args {
		if a.Type() != types.TypeInt {
			return types.Null, types.NewTypeError(
				fmt.Sprintf("range() arguments must be integers, got %s", a.Type()))
		}
		nums[i] = a.AsInt()
	}

	start, stop, step := int64(0), int64(0), int64(1)
	switch len(nums) {
	case 1:
		stop = nums[0]
	case 2:
		start, stop = nums[0], nums[1]
	case 3:
		start, stop, step = nums[0], nums[1], nums[2]
	}
	if step == 0 {
		return types.Null, types.NewValueError("range() step cannot be zero")
	}

	var items []types.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			items = append(items, types.NewInt(i))
		}
	} else {
		for i := start; i > stop; i += step {
			items = append(items, types.NewInt(i))
		}
	}
	return types.NewList(items), nil
}

func builtinSum(args []types.Value) (types.Value, error) {
	if err := wantArgs("sum", args, 1); err != nil {
		return types.Null, err
	}
	if args[0].Type() != types.TypeList {
		return types.Null, types.NewTypeError(
			fmt.Sprintf("sum() requires a list, got %s", args[0].Type()))
	}

	intTotal := int64(0)
	floatTotal := float64(0)
	sawDouble := false
	for _, item := range args[0].AsList() {
		switch item.Type() {
		case types.TypeInt:
			intTotal += item.AsInt()
			floatTotal += float64(item.AsInt())
		case types.TypeDouble:
			sawDouble = true
			floatTotal += item.AsDouble()
		default:
			return types.Null, types.NewTypeError(
				fmt.Sprintf("sum() requires numbers, got %s", item.Type()))
		}
	}
	if sawDouble {
		return types.NewDouble(floatTotal), nil
	}
	return types.NewInt(intTotal), nil
}

func builtinMin(args []types.Value) (types.Value, error) {
	return extreme("min", args, func(cmp int) bool { return cmp < 0 })
}

func builtinMax(args []types.Value) (types.Value, error) {
	return extreme("max", args, func(cmp int) bool { return cmp > 0 })
}

// extreme implements min/max over either a single list argument or the
// arguments themselves.
func extreme(name string, args []types.Value, better func(int) bool) (types.Value, error) {
	items := args
	if len(args) == 1 {
		if args[0].Type() != types.TypeList {
			return types.Null, types.NewTypeError(
				fmt.Sprintf("%s() single argument must be a list, got %s", name, args[0].Type()))
		}
		items = args[0].AsList()
	}
	if len(items) == 0 {
		return types.Null, types.NewValueError(fmt.Sprintf("%s() of an empty sequence", name))
	}

	best := items[0]
	for _, item := range items[1:] {
		cmp, err := compareNumbers(name, item, best)
		if err != nil {
			return types.Null, err
		}
		if better(cmp) {
			best = item
		}
	}
	return best, nil
}

func compareNumbers(name string, a, b types.Value) (int, error) {
	if a.Type() == types.TypeString && b.Type() == types.TypeString {
		return strings.Compare(a.AsString(), b.AsString()), nil
	}
	an, aOk := a.AsNumber()
	bn, bOk := b.AsNumber()
	if !aOk || !bOk {
		return 0, types.NewTypeError(
			fmt.Sprintf("%s() cannot compare %s and %s", name, a.Type(), b.Type()))
	}
	if an < bn {
		return -1, nil
	}
	if an > bn {
		return 1, nil
	}
	return 0, nil
}
