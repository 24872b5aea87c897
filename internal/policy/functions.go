package policy

import (
	"fmt"
)

// Summarize folds conclusions; an explicit ALLOW or DENY wins in order.
func Summarize(conclusions []Conclusion, defaultAllow bool) bool {
	result := UNSET
	for _, c := range conclusions {
		switch c {
		case ALLOW:
			return true
		case DENY:
			return false
		default:
			result = result.Or(c)
		}
	}
	if result == UNSET {
		return defaultAllow
	}
	return result == ALLOW
}

// Evaluate runs every statement of the action and returns one conclusion per
// matching statement. Statements that fail to evaluate are skipped.
func Evaluate(p Policy, ctx RequestContext) []Conclusion {
	var conclusions []Conclusion
	for _, stmt := range p.Statements[ctx.Action] {
		evalResult, err := Eval(ctx, stmt.Condition)
		if err != nil {
			continue
		}
		if evalResult.Result == true {
			conclusions = append(conclusions, ParseConclusion(stmt.Emit))
		}
	}
	return conclusions
}

func Eval(ctx RequestContext, expr Expr) (EvalResult, error) {

	if expr.Const != nil {
		return EvalResult{
			Operator: "Const",
			Result:   expr.Const,
		}, nil
	}

	args := make([]any, 0, len(expr.Args))
	for _, arg := range expr.Args {
		result, err := Eval(ctx, arg)
		if err != nil {
			return EvalResult{
				Operator: expr.Operator,
				Error:    err.Error(),
			}, err
		}
		args = append(args, result.Result)
	}

	if operatorFunc, exists := operators[expr.Operator]; exists {
		return operatorFunc(ctx, args)
	}

	err := fmt.Errorf("unknown operator: %s", expr.Operator)
	return EvalResult{
		Operator: expr.Operator,
		Error:    err.Error(),
	}, err
}
