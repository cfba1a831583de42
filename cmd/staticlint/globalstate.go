package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// GlobalStateAnalyzer запрещает изменять переменные уровня пакета из тел
// функций вне пакета main. Состояние должно принадлежать значениям
// (сессии, реестру), а не пакету. Функции init и тесты не проверяются.
var GlobalStateAnalyzer = &analysis.Analyzer{
	Name:     "globalstate",
	Doc:      "reports assignments to package-level variables from function bodies",
	Run:      runGlobalState,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func runGlobalState(pass *analysis.Pass) (any, error) {
	if pass.Pkg.Name() == "main" || strings.HasSuffix(pass.Pkg.Name(), "_test") {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Body == nil || (fn.Recv == nil && fn.Name.Name == "init") {
			return
		}
		if strings.HasSuffix(pass.Fset.File(fn.Pos()).Name(), "_test.go") {
			return
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			switch stmt := n.(type) {
			case *ast.AssignStmt:
				for _, lhs := range stmt.Lhs {
					reportGlobal(pass, lhs)
				}
			case *ast.IncDecStmt:
				reportGlobal(pass, stmt.X)
			}
			return true
		})
	})
	return nil, nil
}

// reportGlobal сообщает, если выражение изменяет переменную пакета
func reportGlobal(pass *analysis.Pass, expr ast.Expr) {
	id := rootIdent(pass.TypesInfo, expr)
	if id == nil {
		return
	}
	v, ok := pass.TypesInfo.Uses[id].(*types.Var)
	if !ok || v.Pkg() == nil || v.Parent() != v.Pkg().Scope() {
		return
	}
	pass.Reportf(expr.Pos(), "assignment to package-level variable %s", v.Name())
}

// rootIdent находит переменную в основании x.f, x[i], *x, (x)
func rootIdent(info *types.Info, expr ast.Expr) *ast.Ident {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			return e
		case *ast.SelectorExpr:
			// pkg.Var
			if id, ok := e.X.(*ast.Ident); ok {
				if _, isPkg := info.Uses[id].(*types.PkgName); isPkg {
					return e.Sel
				}
			}
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.StarExpr:
			expr = e.X
		default:
			return nil
		}
	}
}
