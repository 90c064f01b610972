package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter keeps the rows for which expression evaluates to true. Column names
// are the expression's variables; values that parse as numbers are exposed as
// float64 so that `visits > 10` compares numerically. Blank and missing cells
// are nil; a row whose evaluation fails on such a cell is dropped rather than
// failing the whole table.
func (t *Table) Filter(expression string) (*Table, error) {
	program, err := compileFilter(expression)
	if err != nil {
		return nil, err
	}

	out := &Table{Columns: t.Columns, Rows: [][]string{}}
	for i, row := range t.Rows {
		env, blanks := t.rowEnv(row)
		result, err := expr.Run(program, env)
		if err != nil && blanks {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("filter %q on row %d: %w", expression, i+1, err)
		}
		keep, ok := result.(bool)
		if !ok && blanks {
			continue
		}
		if !ok {
			return nil, fmt.Errorf("filter %q returned %T, want bool", expression, result)
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

func compileFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return program, nil
}

// rowEnv also reports whether any cell of the row was blank or missing.
func (t *Table) rowEnv(row []string) (map[string]any, bool) {
	env := make(map[string]any, len(t.Columns))
	blanks := false
	for i, c := range t.Columns {
		if i >= len(row) || strings.TrimSpace(row[i]) == "" {
			env[c] = nil
			blanks = true
			continue
		}
		// "nan" and "inf" parse as floats but are kept as text
		if f, err := strconv.ParseFloat(row[i], 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			env[c] = f
		} else {
			env[c] = row[i]
		}
	}
	return env, blanks
}
