package migrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/changelog"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/registry"
	"github.com/pseudomuto/hush/pkg/statement"
	"github.com/pseudomuto/hush/pkg/suppress"
)

type (
	// Config contains the options for New.
	Config struct {
		// Registry holds the executor the runner works through.
		Registry *registry.Registry

		// Database is the registry slot to use.
		Database registry.Database

		// LockTable is the changelog lock table. Defaults to consts.DefaultLockTable.
		LockTable string

		// LockedBy identifies this runner in the lock table.
		LockedBy string
	}

	// Runner applies changelogs.
	Runner struct {
		reg       *registry.Registry
		db        registry.Database
		ctrl      *suppress.Controller
		lockTable string
		lockedBy  string
	}

	// ChangeSetResult describes what happened to a single change set.
	ChangeSetResult struct {
		ID     string
		Author string
		Status Status

		// Duration is how long the change set took.
		Duration time.Duration

		// Statements is how many statements were handed to an executor,
		// suppressed or not.
		Statements int

		// Error is set when Status is StatusFailed.
		Error error
	}

	// Status is the outcome of a change set.
	Status string

	// step is a single unit of work planned for a change set.
	step struct {
		change   *changelog.Change
		rollback bool
	}
)

const (
	// StatusSuccess indicates every change in the set was applied.
	StatusSuccess Status = "success"

	// StatusFailed indicates a change failed. Later change sets aren't run.
	StatusFailed Status = "failed"

	// StatusSkipped indicates no change in the set applies to the dialect.
	StatusSkipped Status = "skipped"
)

var (
	// ErrLocked is returned when another process holds the changelog lock.
	ErrLocked = errors.New("changelog is locked by another process")

	// ErrNoRollback is returned when a change set has SQL changes but no
	// rollback changes.
	ErrNoRollback = errors.New("no rollback defined")
)

// Key identifies the change set as id::author.
func (r *ChangeSetResult) Key() string {
	return r.ID + "::" + r.Author
}

// New creates a Runner.
func New(cfg Config) *Runner {
	lockTable := cfg.LockTable
	if lockTable == "" {
		lockTable = consts.DefaultLockTable
	}

	lockedBy := cfg.LockedBy
	if lockedBy == "" {
		lockedBy = consts.DefaultLockedBy
	}

	return &Runner{
		reg:       cfg.Registry,
		db:        cfg.Database,
		ctrl:      suppress.NewController(cfg.Registry),
		lockTable: lockTable,
		lockedBy:  lockedBy,
	}
}

// Controller returns the suppression controller the runner uses.
func (r *Runner) Controller() *suppress.Controller {
	return r.ctrl
}

// Update applies every change set in cl, in order.
//
// Change sets run until the first failure; the failed change set is the last
// entry in the returned results. The returned error is reserved for problems
// outside a change set, like failing to claim the lock.
func (r *Runner) Update(ctx context.Context, cl *changelog.Changelog) ([]*ChangeSetResult, error) {
	plans := make([][]step, len(cl.ChangeSets))
	for i, cs := range cl.ChangeSets {
		for _, c := range cs.Changes {
			plans[i] = append(plans[i], step{change: c})
		}
	}

	return r.run(ctx, cl.ChangeSets, plans)
}

// Rollback undoes the last count change sets of cl, newest first. A count of
// zero or less rolls back every change set.
//
// Change sets with rollback changes run those. Otherwise the change set's
// suppressOutput changes are inverted in reverse order; any other change
// without a rollback fails with ErrNoRollback before anything runs.
func (r *Runner) Rollback(ctx context.Context, cl *changelog.Changelog, count int) ([]*ChangeSetResult, error) {
	sets := cl.ChangeSets
	if count > 0 && count < len(sets) {
		sets = sets[len(sets)-count:]
	}

	reversed := make([]*changelog.ChangeSet, 0, len(sets))
	plans := make([][]step, 0, len(sets))

	for i := len(sets) - 1; i >= 0; i-- {
		cs := sets[i]
		plan, err := rollbackPlan(cs)
		if err != nil {
			return nil, err
		}

		reversed = append(reversed, cs)
		plans = append(plans, plan)
	}

	return r.run(ctx, reversed, plans)
}

func rollbackPlan(cs *changelog.ChangeSet) ([]step, error) {
	if len(cs.Rollback) > 0 {
		plan := make([]step, 0, len(cs.Rollback))
		for _, c := range cs.Rollback {
			plan = append(plan, step{change: c})
		}
		return plan, nil
	}

	plan := make([]step, 0, len(cs.Changes))
	for i := len(cs.Changes) - 1; i >= 0; i-- {
		c := cs.Changes[i]
		if c.Type() != changelog.ChangeSuppressOutput {
			return nil, errors.Wrapf(ErrNoRollback, "change set %s has a %s change", cs.Key(), c.Type())
		}

		plan = append(plan, step{change: c, rollback: true})
	}

	return plan, nil
}

func (r *Runner) run(ctx context.Context, sets []*changelog.ChangeSet, plans [][]step) (results []*ChangeSetResult, err error) {
	// The lock protocol always goes through the executor that was active
	// when the run started.
	base, err := r.reg.Get(r.db.Name)
	if err != nil {
		return nil, err
	}

	if err := r.lock(ctx, base); err != nil {
		return nil, err
	}

	defer func() {
		if unlockErr := r.unlock(ctx, base); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	results = make([]*ChangeSetResult, 0, len(sets))
	for i, cs := range sets {
		result := r.runChangeSet(ctx, cs, plans[i])
		results = append(results, result)

		if result.Status == StatusFailed {
			slog.Error("Change set failed", "changeset", cs.Key(), "err", result.Error)
			break
		}

		slog.Info("Change set "+string(result.Status), "changeset", cs.Key(), "statements", result.Statements, "duration", result.Duration)
	}

	r.warnIfSuppressed()
	return results, nil
}

func (r *Runner) runChangeSet(ctx context.Context, cs *changelog.ChangeSet, plan []step) *ChangeSetResult {
	start := time.Now()
	result := &ChangeSetResult{ID: cs.ID, Author: cs.Author, Status: StatusSuccess}

	fail := func(err error) *ChangeSetResult {
		result.Status = StatusFailed
		result.Error = errors.Wrapf(err, "change set %s", cs.Key())
		result.Duration = time.Since(start)
		return result
	}

	if !r.applies(plan) {
		result.Status = StatusSkipped
		return result
	}

	if err := r.comment(ctx, cs); err != nil {
		return fail(err)
	}

	for _, s := range plan {
		n, err := r.apply(ctx, s)
		result.Statements += n
		if err != nil {
			return fail(err)
		}
	}

	result.Duration = time.Since(start)
	return result
}

// applies reports whether any step runs on the runner's dialect.
func (r *Runner) applies(plan []step) bool {
	for _, s := range plan {
		if s.change.Type() == changelog.ChangeSuppressOutput || s.change.AppliesTo(r.db.Dialect) {
			return true
		}
	}

	return false
}

func (r *Runner) comment(ctx context.Context, cs *changelog.ChangeSet) error {
	exec, err := r.reg.Get(r.db.Name)
	if err != nil {
		return err
	}

	msg := "Changeset " + cs.Key()
	if cs.Comment != "" {
		msg += ": " + cs.Comment
	}

	return exec.Comment(ctx, msg)
}

func (r *Runner) apply(ctx context.Context, s step) (int, error) {
	if s.change.Type() == changelog.ChangeSuppressOutput {
		req, err := s.change.Request()
		if err != nil {
			return 0, err
		}

		if s.rollback {
			err = r.ctrl.ApplyRollback(ctx, req, r.db)
			req = req.Inverse()
		} else {
			err = r.ctrl.Apply(ctx, req, r.db)
		}

		if err != nil {
			return 0, err
		}

		slog.Info(req.ConfirmationMessage(), "database", r.db.Name)
		return 0, nil
	}

	stmts, err := s.change.Statements(r.db.Dialect)
	if err != nil {
		return 0, err
	}

	// Look the executor up per change; a preceding suppressOutput change may
	// have swapped it.
	exec, err := r.reg.Get(r.db.Name)
	if err != nil {
		return 0, err
	}

	for i, stmt := range stmts {
		if err := exec.Execute(ctx, stmt); err != nil {
			return i, err
		}
	}

	return len(stmts), nil
}

func (r *Runner) lock(ctx context.Context, base executor.Executor) error {
	if err := base.Execute(ctx, &statement.CreateLockTable{Table: r.lockTable}); err != nil {
		return errors.Wrap(err, "failed to create changelog lock table")
	}

	if err := base.Execute(ctx, &statement.InitLockTable{Table: r.lockTable}); err != nil {
		return errors.Wrap(err, "failed to initialize changelog lock table")
	}

	n, err := base.Update(ctx, &statement.LockChangelog{Table: r.lockTable, LockedBy: r.lockedBy})
	if err != nil {
		return errors.Wrap(err, "failed to acquire changelog lock")
	}

	if n != 1 {
		return errors.Wrapf(ErrLocked, "lock table %s", r.lockTable)
	}

	slog.Debug("Acquired changelog lock", "table", r.lockTable, "locked_by", r.lockedBy)
	return nil
}

func (r *Runner) unlock(ctx context.Context, base executor.Executor) error {
	if _, err := base.Update(ctx, &statement.UnlockChangelog{Table: r.lockTable}); err != nil {
		return errors.Wrap(err, "failed to release changelog lock")
	}

	slog.Debug("Released changelog lock", "table", r.lockTable)
	return nil
}

func (r *Runner) warnIfSuppressed() {
	execution, output, err := r.ctrl.Active(r.db.Name)
	if err != nil {
		return
	}

	if execution {
		slog.Warn("Execution to database is still suppressed at the end of the run", "database", r.db.Name)
	}

	if output {
		slog.Warn("Output to SQL file is still suppressed at the end of the run", "database", r.db.Name)
	}
}
