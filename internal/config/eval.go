package config

import (
	"errors"
	"fmt"

	"ctlmapper/internal/layermask"
)

// ErrNoOverload is returned by a NativeFn when no argument-type overload
// matched; Context.applyFun turns it into a generic "name(Type, Type)"
// diagnostic built from the call's actual argument types. Return a
// different error to report a specific problem instead.
var ErrNoOverload = errors.New("no matching overload")

// NativeFn is a builtin function: positional args, then named (keyword)
// args, producing a new value or an error.
type NativeFn func(args []Value, opts map[string]Value) (Value, error)

type varKind int

const (
	varValue varKind = iota
	varNative
	varScript
	varKnobFn
)

// Variable is one binding in a Context scope: a plain value, a registered
// native builtin, a user-defined script function, or the special `knob`
// pseudo-function.
type Variable struct {
	kind       varKind
	value      Value
	native     NativeFn
	scriptArgs []string
	scriptBody Expr
}

// Context is the evaluator's environment: a stack of scopes plus the
// layer-name table and knob registry accumulated while evaluating.
type Context struct {
	Layers     []string
	Knobs      []Knob
	KnobValues map[string]Value
	scopes     []map[string]Variable
}

// NewContext creates an evaluation context seeded with the `knob` pseudo-
// function and any externally supplied knob overrides.
func NewContext(knobValues map[string]Value) *Context {
	if knobValues == nil {
		knobValues = map[string]Value{}
	}
	return &Context{
		KnobValues: knobValues,
		scopes:     []map[string]Variable{{"knob": {kind: varKnobFn}}},
	}
}

func (c *Context) exists(name string) bool {
	_, ok := c.scopes[len(c.scopes)-1][name]
	return ok
}

// InsertVar binds name to value in the current scope. Names starting with
// `_` are discarded (the convention for "don't care" destructuring).
func (c *Context) InsertVar(name string, value Value) {
	if len(name) > 0 && name[0] == '_' {
		return
	}
	if c.exists(name) {
		panic(fmt.Sprintf("variable %s already exists in scope", displayName(name)))
	}
	c.scopes[len(c.scopes)-1][name] = Variable{kind: varValue, value: value}
}

func (c *Context) insertFun(name string, args []string, body Expr) {
	if len(name) > 0 && name[0] == '_' {
		return
	}
	if c.exists(name) {
		panic(fmt.Sprintf("variable %s already exists in scope", displayName(name)))
	}
	c.scopes[len(c.scopes)-1][name] = Variable{kind: varScript, scriptArgs: args, scriptBody: body}
}

// RegisterFun installs a native builtin in the root scope; used once at
// startup to wire the pipeline-stage catalogue into the language.
func (c *Context) RegisterFun(name string, fn NativeFn) {
	c.scopes[0][name] = Variable{kind: varNative, native: fn}
}

// InsertRootVar seeds the root scope with a constant/struct binding, e.g.
// the `A` button token or the `Kb`/`Ms` lookup structs.
func (c *Context) InsertRootVar(name string, value Value) {
	c.scopes[0][name] = Variable{kind: varValue, value: value}
}

func (c *Context) lookup(name string) (Variable, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return Variable{}, false
}

func (c *Context) newScope() { c.scopes = append(c.scopes, map[string]Variable{}) }
func (c *Context) dropScope() { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Context) getValue(name string, span Span) (Value, error) {
	v, ok := c.lookup(name)
	if !ok {
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryNameError,
			Message: fmt.Sprintf("variable %s doesn't exist", displayName(name)), Span: span}
	}
	switch v.kind {
	case varValue:
		return v.value, nil
	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("can't invoke function %s without arguments", displayName(name)), Span: span}
	}
}

func (c *Context) applyFun(name string, posArgs []Value, namedArgs map[string]Value, span Span) (Value, error) {
	v, ok := c.lookup(name)
	if !ok {
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryNameError,
			Message: fmt.Sprintf("unknown function: %s", displayName(name)), Span: span}
	}

	switch v.kind {
	case varValue:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("can't invoke value of kind %s as function", v.value.Kind), Span: span}

	case varNative:
		result, err := v.native(posArgs, namedArgs)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrNoOverload) {
			types := make([]string, len(posArgs))
			for i, a := range posArgs {
				types[i] = a.Kind.String()
			}
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
				Message: fmt.Sprintf("%s(%s)", displayName(name), joinStrings(types, ", ")), Span: span}
		}
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("%s: %s", displayName(name), err.Error()), Span: span}

	case varScript:
		c.newScope()
		defer c.dropScope()

		if len(v.scriptArgs) != len(posArgs)+len(namedArgs) {
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryArityError,
				Message: fmt.Sprintf("expected %d args in function %s, got %d",
					len(v.scriptArgs), displayName(name), len(posArgs)+len(namedArgs)), Span: span}
		}
		for i, arg := range posArgs {
			c.InsertVar(v.scriptArgs[i], arg)
		}
		for argName, val := range namedArgs {
			prefix := argName + "$"
			matched := ""
			for _, a := range v.scriptArgs {
				if hasPrefixRune(a, prefix) {
					matched = a
					break
				}
			}
			if matched == "" {
				return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryNameError,
					Message: fmt.Sprintf("unknown argument %s", argName), Span: span}
			}
			c.InsertVar(matched, val)
		}
		return eval(v.scriptBody, c, false)

	case varKnobFn:
		return c.applyKnob(posArgs, namedArgs, span)

	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "unreachable variable kind", Span: span}
	}
}

func (c *Context) applyKnob(args []Value, opts map[string]Value, span Span) (Value, error) {
	already := func(name string) bool {
		for _, k := range c.Knobs {
			if k.Name == name {
				return true
			}
		}
		return false
	}

	switch {
	case len(args) == 2 && args[0].Kind == KindString && args[1].Kind == KindBoolean:
		name, def := args[0].Str, args[1].Bool
		if already(name) {
			return Value{}, fmt.Errorf("knob %s is already registered", name)
		}
		value := def
		if stored, ok := c.KnobValues[name]; ok && stored.Kind == KindBoolean {
			value = stored.Bool
		}
		c.Knobs = append(c.Knobs, Knob{Kind: KnobFlag, Name: name, Flag: value})
		return BoolValue(value), nil

	case len(args) == 3 && args[0].Kind == KindString && args[1].Kind == KindString && args[2].Kind == KindList:
		name, def := args[0].Str, args[1].Str
		options, ok := stringsOf(args[2].List)
		if !ok {
			return Value{}, errors.New("options should only contain string values")
		}
		if already(name) {
			return Value{}, fmt.Errorf("knob %s is already registered", name)
		}
		value := def
		if stored, ok := c.KnobValues[name]; ok && stored.Kind == KindString {
			found := false
			for _, o := range options {
				if o == stored.Str {
					found = true
					break
				}
			}
			if found {
				value = stored.Str
			}
		}
		idx := 0
		for i, o := range options {
			if o == value {
				idx = i
				break
			}
		}
		c.Knobs = append(c.Knobs, Knob{Kind: KnobEnum, Name: name, EnumOpts: options, EnumIdx: idx})
		return StringValue(value), nil

	case len(args) == 2 && args[0].Kind == KindString && args[1].Kind == KindNumber:
		name, def := args[0].Str, args[1].Number
		minV, hasMin := opts["min_value"]
		maxV, hasMax := opts["max_value"]
		if !hasMin || !hasMax || minV.Kind != KindNumber || maxV.Kind != KindNumber {
			return Value{}, errors.New("min_value/max_value should be specified")
		}
		if already(name) {
			return Value{}, fmt.Errorf("knob %s is already registered", name)
		}
		value := def
		if stored, ok := c.KnobValues[name]; ok && stored.Kind == KindNumber {
			value = stored.Number
		}
		c.Knobs = append(c.Knobs, Knob{Kind: KnobNumber, Name: name, Number: value, MinValue: minV.Number, MaxValue: maxV.Number})
		return NumberValue(value), nil

	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "unknown knob format", Span: span}
	}
}

// eval walks an expression tree. allowLayerExprs is true only at the
// top-level config scope, matching the original restriction that `layer`
// bindings can't appear nested inside function bodies or sub-scopes.
func eval(e Expr, ctx *Context, allowLayerExprs bool) (Value, error) {
	switch n := e.(type) {
	case *Ident:
		return ctx.getValue(n.Name, n.span)

	case *NumberLit:
		return NumberValue(n.Value), nil

	case *BoolLit:
		return BoolValue(n.Value), nil

	case *StringLit:
		return StringValue(n.Value), nil

	case *Apply:
		pos, named, err := evalArgs(n.Args, ctx)
		if err != nil {
			return Value{}, err
		}
		return ctx.applyFun(n.Name, pos, named, n.span)

	case *OpExpr:
		if n.Op == OpAccess {
			return evalAccess(n, ctx)
		}
		lhs, err := eval(n.LHS, ctx, false)
		if err != nil {
			return Value{}, err
		}
		rhs, err := eval(n.RHS, ctx, false)
		if err != nil {
			return Value{}, err
		}
		return evalOp(n.Op, lhs, rhs, n.span)

	case *Scope:
		return evalScope(n, ctx, false)

	case *Layer:
		if !allowLayerExprs {
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryScopeError,
				Message: "layers must be declared at the top level of the config file", Span: n.span}
		}
		var mask layermask.Mask
		for _, name := range n.Names {
			idx := indexOf(ctx.Layers, name)
			m, err := layermask.UserLayer(idx)
			if err != nil {
				return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryScopeError, Message: err.Error(), Span: n.span}
			}
			mask = mask.Or(m)
		}
		result, err := eval(n.Body, ctx, false)
		if err != nil {
			return Value{}, err
		}
		flat := flatten(result)
		out := make([]Value, len(flat))
		for i, v := range flat {
			if v.Kind != KindCompletePipeline {
				return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
					Message: fmt.Sprintf("expected closed pipeline, got %s", v.Kind), Span: n.span}
			}
			out[i] = CompletePipelineValue(mask, v.Complete)
		}
		return ListValue(out), nil

	case *IfElse:
		cond, err := eval(n.Cond, ctx, false)
		if err != nil {
			return Value{}, err
		}
		if cond.Kind != KindBoolean {
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "expected boolean", Span: n.Cond.Span()}
		}
		if cond.Bool {
			return eval(n.Branch1, ctx, allowLayerExprs)
		}
		return eval(n.Branch2, ctx, allowLayerExprs)

	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "unreachable expression kind", Span: e.Span()}
	}
}

func evalArgs(args []Arg, ctx *Context) ([]Value, map[string]Value, error) {
	named := false
	for _, a := range args {
		if a.Name == "" && named {
			return nil, nil, &Diagnostic{Stage: StageEval, Category: CategoryScopeError,
				Message: "named args should follow positional args", Span: a.Expr.Span()}
		}
		if a.Name != "" {
			named = true
		}
	}
	var pos []Value
	namedArgs := map[string]Value{}
	for _, a := range args {
		v, err := eval(a.Expr, ctx, false)
		if err != nil {
			return nil, nil, err
		}
		if a.Name != "" {
			namedArgs[a.Name] = v
		} else {
			pos = append(pos, v)
		}
	}
	return pos, namedArgs, nil
}

func evalAccess(n *OpExpr, ctx *Context) (Value, error) {
	lhs, err := eval(n.LHS, ctx, false)
	if err != nil {
		return Value{}, err
	}

	switch rhs := n.RHS.(type) {
	case *Apply:
		pos, named, err := evalArgs(rhs.Args, ctx)
		if err != nil {
			return Value{}, err
		}
		pos = append([]Value{lhs}, pos...)
		return ctx.applyFun(rhs.Name, pos, named, rhs.span)

	case *Ident:
		if lhs.Kind == KindStruct {
			if field, ok := lhs.Struct[rhs.Name]; ok {
				return field, nil
			}
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryNameError,
				Message: fmt.Sprintf("no entry found for key %s", displayName(rhs.Name)), Span: rhs.span}
		}
		v, ok := ctx.lookup(rhs.Name)
		if !ok {
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryNameError,
				Message: fmt.Sprintf("variable %s doesn't exist", displayName(rhs.Name)), Span: rhs.span}
		}
		switch v.kind {
		case varValue:
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
				Message: fmt.Sprintf("%s is supposed to be a function", displayName(rhs.Name)), Span: rhs.span}
		case varScript, varNative:
			return ctx.applyFun(rhs.Name, []Value{lhs}, map[string]Value{}, rhs.span)
		default:
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "invalid member access", Span: rhs.span}
		}

	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError, Message: "invalid member access", Span: n.span}
	}
}

func evalOp(op Operation, lhs, rhs Value, span Span) (Value, error) {
	switch {
	case lhs.Kind == KindNumber && rhs.Kind == KindNumber:
		switch op {
		case OpAdd:
			return NumberValue(lhs.Number + rhs.Number), nil
		case OpSub:
			return NumberValue(lhs.Number - rhs.Number), nil
		case OpMul:
			return NumberValue(lhs.Number * rhs.Number), nil
		case OpDiv:
			return NumberValue(lhs.Number / rhs.Number), nil
		case OpEq:
			return BoolValue(lhs.Number == rhs.Number), nil
		default:
			return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
				Message: fmt.Sprintf("can't apply %s to numeric operands", op), Span: span}
		}
	case lhs.Kind == KindLayerMask && rhs.Kind == KindLayerMask:
		if op == OpBitOr {
			return LayerMaskValue(lhs.Layer.Or(rhs.Layer)), nil
		}
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("can't apply %s to layer operands", op), Span: span}
	case lhs.Kind == KindString && rhs.Kind == KindString:
		if op == OpEq {
			return BoolValue(lhs.Str == rhs.Str), nil
		}
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("can't apply %s to string operands", op), Span: span}
	default:
		return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryTypeError,
			Message: fmt.Sprintf("can't apply %s to operands %s and %s", op, lhs.Kind, rhs.Kind), Span: span}
	}
}

func evalScope(s *Scope, ctx *Context, allowLayerExprs bool) (Value, error) {
	ctx.newScope()
	defer ctx.dropScope()

	for _, stmt := range s.Statements {
		switch st := stmt.(type) {
		case *LetStmt:
			result, err := eval(st.Body, ctx, false)
			if err != nil {
				return Value{}, err
			}
			if len(st.Names) > 1 {
				if result.Kind != KindList || len(result.List) != len(st.Names) {
					return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryArityError,
						Message: fmt.Sprintf("expected %d vars", len(st.Names)), Span: st.span}
				}
				for i, name := range st.Names {
					ctx.InsertVar(name, result.List[i])
				}
			} else {
				ctx.InsertVar(st.Names[0], result)
			}
		case *DefStmt:
			ctx.insertFun(st.Name, st.Args, st.Body)
		}
	}

	for _, expr := range s.Results {
		if layer, ok := expr.(*Layer); ok {
			for _, name := range layer.Names {
				idx := indexOf(ctx.Layers, name)
				if idx == len(ctx.Layers) {
					ctx.Layers = append(ctx.Layers, name)
				}
				if !ctx.exists(name) {
					m, err := layermask.UserLayer(idx)
					if err != nil {
						return Value{}, &Diagnostic{Stage: StageEval, Category: CategoryScopeError, Message: err.Error(), Span: layer.span}
					}
					ctx.InsertVar(name, LayerMaskValue(m))
				}
			}
		}
	}

	var results []Value
	for _, expr := range s.Results {
		v, err := eval(expr, ctx, allowLayerExprs)
		if err != nil {
			return Value{}, err
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return ListValue(results), nil
}

// EvalConfig evaluates a fully parsed scope at the top level, where `layer`
// bindings are legal.
func EvalConfig(prog *Scope, ctx *Context) (Value, error) {
	return evalScope(prog, ctx, true)
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return len(xs)
}

func stringsOf(vs []Value) ([]string, bool) {
	out := make([]string, len(vs))
	for i, v := range vs {
		if v.Kind != KindString {
			return nil, false
		}
		out[i] = v.Str
	}
	return out, true
}

// flatten collects a value into a slice: a List expands to its elements,
// anything else is a one-element slice.
func flatten(v Value) []Value {
	if v.Kind == KindList {
		return v.List
	}
	return []Value{v}
}

func joinStrings(xs []string, sep string) string {
	out := ""
	for i, x := range xs {
		if i > 0 {
			out += sep
		}
		out += x
	}
	return out
}

func hasPrefixRune(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}
