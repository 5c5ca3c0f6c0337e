package extensibility

import (
	"fmt"
	"sync"

	"github.com/comalice/ecsx"
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExpressionCriteria is a run criteria written as an expr-lang expression
// over the World's Blackboard, e.g. `score > 10 && !paused`. Keys missing
// from the blackboard evaluate as nil.
//
// The expression is evaluated once per stage run. The verdict is cached
// against the blackboard's revision, so a board nobody wrote to since the last
// run is neither copied nor re-evaluated. Evaluation errors count as No and are
// kept for inspection through Err.
type ExpressionCriteria struct {
	expression string
	program    *exprvm.Program

	mu    sync.Mutex
	err   error
	board *ecsx.Blackboard
	rev   uint64
	last  ecsx.ShouldRun
	runs  int
}

// NewExpressionCriteria compiles expression. It must produce a boolean.
func NewExpressionCriteria(expression string) (*ExpressionCriteria, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	return &ExpressionCriteria{expression: expression, program: program}, nil
}

// MustExpressionCriteria is NewExpressionCriteria for expressions known at
// compile time. It panics on invalid input.
func MustExpressionCriteria(expression string) *ExpressionCriteria {
	c, err := NewExpressionCriteria(expression)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *ExpressionCriteria) String() string {
	return c.expression
}

// Evaluate runs the expression against the *ecsx.Blackboard resource of w.
// Without a blackboard every key is undefined.
func (c *ExpressionCriteria) Evaluate(w *ecsx.World) ecsx.ShouldRun {
	var board *ecsx.Blackboard
	if bb, ok := ecsx.Resource[*ecsx.Blackboard](w); ok {
		board = *bb
	}

	env, rev := map[string]any{}, uint64(0)
	if board != nil {
		env, rev = board.View()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs > 0 && c.board == board && c.rev == rev {
		return c.last
	}

	out, err := exprlang.Run(c.program, env)
	c.err = err
	c.last = ecsx.No
	if ok, _ := out.(bool); err == nil && ok {
		c.last = ecsx.Yes
	}
	c.board, c.rev = board, rev
	c.runs++
	return c.last
}

// Runs reports how many times the expression was actually executed, as
// opposed to answered from the revision cache.
func (c *ExpressionCriteria) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Err returns the error of the last evaluation, if any.
func (c *ExpressionCriteria) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Descriptor wraps c as an unlabeled run criteria.
func (c *ExpressionCriteria) Descriptor() *ecsx.RunCriteriaDescriptor {
	return ecsx.NewRunCriteria(c.Evaluate)
}

// When guards systems with an expression, labeling the criteria with the
// expression text so identical guards share one node.
func When(expression string, systems ...ecsx.System) (*ecsx.SystemSet, error) {
	c, err := NewExpressionCriteria(expression)
	if err != nil {
		return nil, err
	}
	set := ecsx.NewSystemSet().WithRunCriteria(
		c.Descriptor().LabelDiscardIfDuplicate(ecsx.NewLabel("expr:" + expression)),
	)
	for _, sys := range systems {
		set.WithSystem(sys)
	}
	return set, nil
}
