package suppress

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/registry"
	"github.com/pseudomuto/hush/pkg/sqlgen"
)

// Controller applies suppression requests to the executors held in a
// registry.
type Controller struct {
	reg *registry.Registry
}

type transition int

const (
	keep transition = iota
	wrap
	unwrap
)

// NewController creates a Controller that swaps executors in reg.
func NewController(reg *registry.Registry) *Controller {
	return &Controller{reg: reg}
}

// Apply carries out req against the active executor of db.
//
// Invalid requests fail with ErrConfiguration before the registry is read, as
// does a START when no dialect is known for db.
// Requests that are already in effect are no-ops. Any error leaves the
// executor chain exactly as it was.
func (c *Controller) Apply(ctx context.Context, req Request, db registry.Database) error {
	if err := req.Validate(); err != nil {
		return err
	}

	err := c.reg.Update(db.Name, func(slot registry.Database, current executor.Executor) (executor.Executor, error) {
		t, err := plan(req, current)
		if err != nil {
			return nil, err
		}

		switch t {
		case wrap:
			dialect := dialectFor(slot, db, current)
			if dialect == nil {
				return nil, errors.Wrapf(ErrConfiguration, "no dialect known for %s", db.Name)
			}

			slog.DebugContext(ctx, "Installing suppressing executor", "database", db.Name, "request", req.String(), "wrapped", current.Kind().String())
			return NewExecutor(current, dialect), nil
		case unwrap:
			prev := current.(executor.Wrapper).Previous()
			slog.DebugContext(ctx, "Removing suppressing executor", "database", db.Name, "request", req.String(), "restored", prev.Kind().String())
			return prev, nil
		default:
			slog.DebugContext(ctx, "Suppression unchanged", "database", db.Name, "request", req.String(), "current", current.Kind().String())
			return current, nil
		}
	})

	return errors.Wrapf(err, "failed to apply suppressOutput %s to %s", req, db.Name)
}

// ApplyRollback undoes req by applying its inverse.
func (c *Controller) ApplyRollback(ctx context.Context, req Request, db registry.Database) error {
	if err := req.Validate(); err != nil {
		return err
	}

	return c.Apply(ctx, req.Inverse(), db)
}

// Active reports which targets are currently suppressed for the named
// database.
func (c *Controller) Active(name string) (execution bool, output bool, err error) {
	current, err := c.reg.Get(name)
	if err != nil {
		return false, false, err
	}

	for current != nil {
		w, ok := current.(executor.Wrapper)
		if !ok || current.Kind() != executor.KindSuppressing {
			break
		}

		execution = execution || w.SuppressesExecution()
		output = output || w.SuppressesOutput()
		current = w.Previous()
	}

	return execution, output, nil
}

// plan decides what req does to an executor chain whose top is current.
func plan(req Request, current executor.Executor) (transition, error) {
	if current == nil {
		return keep, errors.Wrap(ErrUnsupportedBackend, "no executor registered")
	}

	// The executor kind that does the work req targets, and the one req
	// leaves alone.
	active, passive := executor.KindDatabase, executor.KindOutput
	if req.Target == Output {
		active, passive = passive, active
	}

	switch current.Kind() {
	case active:
		if req.Direction == Start {
			return wrap, nil
		}
		return keep, nil
	case passive:
		return keep, nil
	case executor.KindSuppressing:
		w, ok := current.(executor.Wrapper)
		if !ok {
			return keep, errors.Wrap(ErrUnsupportedBackend, "suppressing executor doesn't expose the executor it wraps")
		}

		if suppresses(w, req.Target) {
			if req.Direction == Start {
				return keep, nil
			}
			return unwrap, nil
		}

		if suppresses(w, other(req.Target)) {
			return keep, contradiction(req)
		}

		return keep, errors.Wrap(ErrUnsupportedBackend, "suppressing executor suppresses neither execution nor output")
	default:
		return keep, errors.Wrapf(ErrUnsupportedBackend, "unknown executor kind %s", current.Kind())
	}
}

// dialectFor picks the dialect suppressed statements are rendered in: the
// registered one, then the requested one, then the wrapped executor's own.
func dialectFor(slot, db registry.Database, current executor.Executor) *sqlgen.Dialect {
	if slot.Dialect != nil {
		return slot.Dialect
	}

	if db.Dialect != nil {
		return db.Dialect
	}

	if d, ok := current.(interface{ Dialect() *sqlgen.Dialect }); ok {
		return d.Dialect()
	}

	return nil
}

func suppresses(w executor.Wrapper, t Target) bool {
	if t == Execution {
		return w.SuppressesExecution()
	}
	return w.SuppressesOutput()
}

func other(t Target) Target {
	if t == Execution {
		return Output
	}
	return Execution
}

func contradiction(req Request) error {
	switch {
	case req.Target == Execution && req.Direction == Start:
		return errors.Wrap(ErrContradiction, "output to SQL file already suppressed, also suppressing execution will never result in a change")
	case req.Target == Output && req.Direction == Start:
		return errors.Wrap(ErrContradiction, "execution already suppressed, also suppressing output to SQL file will never result in a change")
	case req.Target == Execution:
		return errors.Wrap(ErrContradiction, "output to SQL file is suppressed, stop suppressing output before stopping execution suppression")
	default:
		return errors.Wrap(ErrContradiction, "execution is suppressed, stop suppressing execution before stopping output suppression")
	}
}
