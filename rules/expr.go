package rules

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// resultEnv declares the variables a result filter expression can reference
var resultEnv = sync.OnceValues(func() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("resultType", cel.StringType),
		cel.Variable("class", cel.StringType),
		cel.Variable("result", cel.StringType),
		cel.Variable("date", cel.TimestampType),
		cel.Variable("cert", cel.BoolType),
		cel.Variable("cacit", cel.BoolType),
		cel.Variable("resCert", cel.BoolType),
		cel.Variable("resCacit", cel.BoolType),
		cel.Variable("official", cel.BoolType),
		cel.Variable("minDate", cel.TimestampType),
		cel.Variable("maxDate", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
})

// ResultFilter is a compiled boolean CEL expression over a single result
// and the bounds of a result window
type ResultFilter struct {
	expression string
	program    cel.Program
}

// CompileResultFilter compiles and type checks expression.
// The expression must evaluate to a bool.
func CompileResultFilter(expression string) (*ResultFilter, error) {
	env, err := resultEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q evaluates to %s, want bool", expression, ast.OutputType())
	}

	// Cost limit bounds evaluation of runaway expressions
	prog, err := env.Program(ast, cel.CostLimit(100000))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return &ResultFilter{expression: expression, program: prog}, nil
}

// String returns the source expression
func (f *ResultFilter) String() string {
	return f.expression
}

// Match evaluates the filter. Evaluation errors count as no match.
func (f *ResultFilter) Match(r Result, minDate, maxDate time.Time) bool {
	out, _, err := f.program.Eval(map[string]any{
		"resultType": r.Type,
		"class":      string(r.Class),
		"result":     r.Result,
		"date":       r.Date,
		"cert":       r.Cert,
		"cacit":      r.Cacit,
		"resCert":    r.ResCert,
		"resCacit":   r.ResCacit,
		"official":   r.Official,
		"minDate":    minDate,
		"maxDate":    maxDate,
	})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}
