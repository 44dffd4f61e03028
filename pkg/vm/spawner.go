package vm

// Spawner starts async program executions.
type Spawner interface {
	Spawn(f func())
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(f func())

func (fn SpawnerFunc) Spawn(f func()) { fn(f) }

// GoSpawner runs each execution on its own goroutine.
var GoSpawner Spawner = SpawnerFunc(func(f func()) { go f() })

// InlineSpawner runs executions on the caller's goroutine. Tests use it to
// make async calls deterministic.
var InlineSpawner Spawner = SpawnerFunc(func(f func()) { f() })
