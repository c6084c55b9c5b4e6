package config

// renameBindings alpha-renames every binding `id` introduced by a let/def
// to `id$N`, so that shadowing re-declarations (`let x = x*2;`) refer
// unambiguously to the prior value instead of colliding with themselves.
// The numeric suffix survives into evaluation and diagnostics; callers
// strip it back off with displayName when reporting to the user.
func renameBindings(prog *Scope) {
	counter := 1
	renameScope(prog, nil, &counter)
}

func renameScope(s *Scope, scopes []map[string]int, counter *int) {
	scopes = append(scopes, map[string]int{})
	top := len(scopes) - 1

	for _, stmt := range s.Statements {
		switch st := stmt.(type) {
		case *LetStmt:
			renameExpr(st.Body, scopes, counter)
			for i, name := range st.Names {
				scopes[top][name] = *counter
				st.Names[i] = suffixed(name, *counter)
				*counter++
			}
		case *DefStmt:
			argScopes := append(scopes, map[string]int{})
			argTop := len(argScopes) - 1
			for i, arg := range st.Args {
				argScopes[argTop][arg] = *counter
				st.Args[i] = suffixed(arg, *counter)
				*counter++
			}
			renameExpr(st.Body, argScopes, counter)

			scopes[top][st.Name] = *counter
			st.Name = suffixed(st.Name, *counter)
			*counter++
		}
	}

	for _, expr := range s.Results {
		renameExpr(expr, scopes, counter)
	}
}

func renameExpr(e Expr, scopes []map[string]int, counter *int) {
	switch v := e.(type) {
	case *Ident:
		v.Name = lookupRename(v.Name, scopes)
	case *NumberLit, *BoolLit, *StringLit:
		// no bindings to rename
	case *OpExpr:
		renameExpr(v.LHS, scopes, counter)
		renameExpr(v.RHS, scopes, counter)
	case *Apply:
		v.Name = lookupRename(v.Name, scopes)
		for _, arg := range v.Args {
			renameExpr(arg.Expr, scopes, counter)
		}
	case *Scope:
		renameScope(v, scopes, counter)
	case *Layer:
		renameExpr(v.Body, scopes, counter)
	case *IfElse:
		renameExpr(v.Cond, scopes, counter)
		renameExpr(v.Branch1, scopes, counter)
		renameExpr(v.Branch2, scopes, counter)
	}
}

func lookupRename(name string, scopes []map[string]int) string {
	for i := len(scopes) - 1; i >= 0; i-- {
		if idx, ok := scopes[i][name]; ok {
			return suffixed(name, idx)
		}
	}
	return name
}

func suffixed(name string, n int) string {
	return name + "$" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// displayName strips the alpha-rename suffix back off for user-facing
// diagnostics, e.g. "x$3" -> "x".
func displayName(name string) string {
	for i, r := range name {
		if r == '$' {
			return name[:i]
		}
	}
	return name
}
