// Package registry tracks the active executor for each database a run talks to.
//
// A Registry is an explicit handle: create one per migration run and pass it
// to whatever needs to look up or swap executors. Each database slot holds
// the top of an executor chain; wrappers installed on top of a slot keep a
// reference to the executor below them, so the registry only ever sees the
// outermost one.
//
// # Usage Example
//
//	reg := registry.New()
//	reg.Set(registry.Database{Name: "default", Dialect: sqlgen.Postgres}, exec)
//
//	err := reg.Update("default", func(db registry.Database, current executor.Executor) (executor.Executor, error) {
//		return wrap(current), nil
//	})
//
// Update runs the inspect-then-replace sequence under the registry lock, so
// two callers can never interleave a lookup with a swap on the same slot.
package registry
