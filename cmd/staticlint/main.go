// Команда staticlint запускает набор анализаторов проекта:
// стандартные проходы golang.org/x/tools, staticcheck, go-critic,
// errcheck и собственные osexit и globalstate.
package main

import (
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"

	// Стандартные анализаторы из golang.org/x/tools/go/analysis/passes
	"golang.org/x/tools/go/analysis/passes/appends"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/slog"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	// Анализаторы staticcheck.io
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	// Публичные анализаторы
	"github.com/go-critic/go-critic/checkers/analyzer"
	"github.com/kisielk/errcheck/errcheck"
)

// disabledChecks проверки stylecheck про комментарии и именование,
// которые к проекту не применяются
var disabledChecks = map[string]bool{
	"ST1000": true,
	"ST1003": true,
	"ST1020": true,
	"ST1021": true,
	"ST1022": true,
}

func main() {
	multichecker.Main(analyzers()...)
}

// analyzers собирает полный список проверок без повторов.
func analyzers() []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		OsExitAnalyzer,
		GlobalStateAnalyzer,
	}

	// ассемблера, cgo и unsafe в проекте нет, соответствующие проходы не нужны
	concurrency := []*analysis.Analyzer{
		atomic.Analyzer,
		copylock.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
	}
	apiMisuse := []*analysis.Analyzer{
		appends.Analyzer,
		defers.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		ifaceassert.Analyzer,
		nilfunc.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		slog.Analyzer,
		sortslice.Analyzer,
		stdmethods.Analyzer,
		stringintconv.Analyzer,
		structtag.Analyzer,
		timeformat.Analyzer,
		unmarshal.Analyzer,
		unusedresult.Analyzer,
	}
	suspicious := []*analysis.Analyzer{
		assign.Analyzer,
		bools.Analyzer,
		composite.Analyzer,
		shadow.Analyzer,
		shift.Analyzer,
		tests.Analyzer,
		unreachable.Analyzer,
	}
	checks = append(checks, concurrency...)
	checks = append(checks, apiMisuse...)
	checks = append(checks, suspicious...)
	checks = append(checks, analyzer.Analyzer, errcheck.Analyzer)

	// SA целиком, из ST и S только включённые
	for _, v := range staticcheck.Analyzers {
		checks = append(checks, v.Analyzer)
	}
	for _, v := range stylecheck.Analyzers {
		if !disabledChecks[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}
	for _, v := range simple.Analyzers {
		if !disabledChecks[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}
	return checks
}
