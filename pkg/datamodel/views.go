package datamodel

import (
	"errors"
	"log/slog"

	"github.com/sandrolain/dataexpr/pkg/interpreter"
	"github.com/sandrolain/dataexpr/pkg/types"
)

// View is an expression whose value is kept in sync with the model.
type View struct {
	name      string
	expr      *types.Expression
	deps      []string
	value     types.Value
	err       error
	evaluated bool
}

// Name returns the view name.
func (v *View) Name() string { return v.name }

// Expression returns the compiled expression behind the view.
func (v *View) Expression() *types.Expression { return v.expr }

// Value returns the value computed by the last Update.
func (v *View) Value() types.Value { return v.value }

// Err returns the error of the last evaluation, if any.
func (v *View) Err() error { return v.err }

// Dependencies returns the root variables read by the last evaluation.
func (v *View) Dependencies() []string { return v.deps }

// AddView registers an expression to be evaluated by Update. The
// expression must have been compiled against this model.
func (m *Model) AddView(name string, expr *types.Expression) (*View, error) {
	if expr == nil || expr.Program() == nil {
		return nil, errors.New("datamodel: nil expression")
	}
	if expr.IsAssignment() {
		return nil, errors.New("datamodel: a view needs an expression program, not an assignment")
	}
	view := &View{name: name, expr: expr}
	m.views = append(m.views, view)
	return view, nil
}

// Views returns the registered views in registration order.
func (m *Model) Views() []*View {
	return m.views
}

// Update re-evaluates every view that has not been evaluated yet or that
// depends on a dirty variable, then clears the dirty set. It returns the
// views whose value changed.
func (m *Model) Update() []*View {
	var changed []*View
	for _, view := range m.views {
		if view.evaluated && !m.anyDependencyDirty(view) {
			continue
		}
		if m.evaluate(view) {
			changed = append(changed, view)
		}
	}
	m.ClearDirty()
	return changed
}

func (m *Model) anyDependencyDirty(view *View) bool {
	for _, name := range view.deps {
		if m.IsVariableDirty(name) {
			return true
		}
	}
	return false
}

// evaluate runs the view and reports whether its value changed.
func (m *Model) evaluate(view *View) bool {
	in := interpreter.ForExpression(view.expr, m, interpreter.WithLogger(m.logger))

	var err error
	view.deps = m.Track(func() {
		err = in.Run()
	})

	first := !view.evaluated
	view.evaluated = true
	if err != nil {
		m.logger.Warn("view evaluation failed",
			slog.String("view", view.name),
			slog.String("expression", view.expr.Source()),
			slog.Any("error", err),
		)
		view.err = err
		return false
	}

	prev := view.value
	view.value = in.Result()
	view.err = nil
	return first || !sameValue(prev, view.value)
}

func sameValue(a, b types.Value) bool {
	return a.Kind() == b.Kind() && a.ToString() == b.ToString()
}
