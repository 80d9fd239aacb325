package python

import (
	"github.com/go-python/gpython/ast"
)

// collectAssigned gathers every name bound by assignment within a body,
// without descending into nested function scopes. Together with the
// parameter list this classifies a function's fast locals.
func collectAssigned(stmts []ast.Stmt, set map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				if n, ok := t.(*ast.Name); ok {
					set[string(n.Id)] = true
				}
			}
		case *ast.AugAssign:
			if n, ok := s.Target.(*ast.Name); ok {
				set[string(n.Id)] = true
			}
		case *ast.FunctionDef:
			// The def statement binds its name; the body is a new scope.
			set[string(s.Name)] = true
		case *ast.If:
			collectAssigned(s.Body, set)
			collectAssigned(s.Orelse, set)
		case *ast.While:
			collectAssigned(s.Body, set)
			collectAssigned(s.Orelse, set)
		}
	}
}

// collectGlobals gathers names declared global anywhere in a body, again
// without crossing into nested function scopes.
func collectGlobals(stmts []ast.Stmt, set map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Global:
			for _, name := range s.Names {
				set[string(name)] = true
			}
		case *ast.If:
			collectGlobals(s.Body, set)
			collectGlobals(s.Orelse, set)
		case *ast.While:
			collectGlobals(s.Body, set)
			collectGlobals(s.Orelse, set)
		}
	}
}
