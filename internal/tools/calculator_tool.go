// In file: internal/tools/calculator_tool.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
)

// --- Calculator Tool Implementation ---

const CalculatorToolName = "calculator"

// CalculatorTool evaluates arithmetic over numeric literals. It never executes
// code: the expression is parsed into a syntax tree and only number literals,
// parentheses, unary sign and the four operators plus remainder are folded.
// Anything else (identifiers, calls, selectors, indexing) is rejected.
type CalculatorTool struct{}

// Statically verify that CalculatorTool implements the ToolExecutor interface.
var _ ToolExecutor = (*CalculatorTool)(nil)

// NewCalculatorTool creates a new instance of the CalculatorTool.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

// Definition describes the tool to the LLM.
func (ct *CalculatorTool) Definition() Tool {
	return NewFunctionTool(
		CalculatorToolName,
		"Evaluate a mathematical expression",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"expression": {
					Type:        "string",
					Description: "The mathematical expression to evaluate, e.g., '2 + 2' or '5 * (3 + 2)'",
				},
			},
			Required: []string{"expression"},
		},
	)
}

// Execute evaluates the expression argument.
func (ct *CalculatorTool) Execute(_ context.Context, arguments string) (string, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for calculator: %w", err)
	}
	return Evaluate(args.Expression), nil
}

// Evaluate folds a literal arithmetic expression and returns
// "The result of <expr> is <value>." or an ErrorPrefix string.
func Evaluate(expression string) string {
	value, err := evaluateLiteral(expression)
	if err != nil {
		return errorResult(err.Error())
	}
	return fmt.Sprintf("The result of %s is %s.", expression, formatValue(value))
}

func evaluateLiteral(expression string) (constant.Value, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.New("empty expression")
	}
	if err := rejectComments(expression); err != nil {
		return nil, err
	}
	expr, err := parser.ParseExpr(expression)
	if err != nil {
		return nil, fmt.Errorf("malformed expression: %v", err)
	}
	return fold(expr)
}

// rejectComments fails on "//" and "/* */" sequences. The parser would drop
// them silently, so "7 // 2" would otherwise fold to 7.
func rejectComments(expression string) error {
	src := []byte(expression)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, src, nil, scanner.ScanComments)
	for {
		_, tok, lit := s.Scan()
		switch tok {
		case token.EOF:
			return nil
		case token.COMMENT:
			return fmt.Errorf("unsupported syntax %q: only numeric literals and arithmetic are allowed", strings.TrimSpace(lit))
		}
	}
}

func fold(node ast.Expr) (constant.Value, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		switch n.Kind {
		case token.INT, token.FLOAT:
			v := constant.MakeFromLiteral(n.Value, n.Kind, 0)
			if v.Kind() == constant.Unknown {
				return nil, fmt.Errorf("malformed number %s", n.Value)
			}
			return v, nil
		}
		return nil, fmt.Errorf("unsupported literal %s", n.Value)

	case *ast.ParenExpr:
		return fold(n.X)

	case *ast.UnaryExpr:
		if n.Op != token.ADD && n.Op != token.SUB {
			return nil, fmt.Errorf("unsupported operator %s", n.Op)
		}
		x, err := fold(n.X)
		if err != nil {
			return nil, err
		}
		return constant.UnaryOp(n.Op, x, 0), nil

	case *ast.BinaryExpr:
		x, err := fold(n.X)
		if err != nil {
			return nil, err
		}
		y, err := fold(n.Y)
		if err != nil {
			return nil, err
		}
		return applyBinary(n.Op, x, y)
	}
	return nil, fmt.Errorf("unsupported expression %T: only numeric literals and arithmetic are allowed", node)
}

func applyBinary(op token.Token, x, y constant.Value) (constant.Value, error) {
	switch op {
	case token.ADD, token.SUB, token.MUL:
		return constant.BinaryOp(x, op, y), nil
	case token.QUO:
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		// QUO on integers yields an exact rational, i.e. true division.
		return constant.BinaryOp(x, token.QUO, y), nil
	case token.REM:
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, errors.New("remainder requires integer operands")
		}
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		return constant.BinaryOp(x, token.REM, y), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

// formatValue renders integers exactly and everything else as the shortest
// float64 representation, keeping a trailing ".0" on whole floats.
func formatValue(v constant.Value) string {
	if v.Kind() == constant.Int {
		return v.ExactString()
	}
	f, _ := constant.Float64Val(v)
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
