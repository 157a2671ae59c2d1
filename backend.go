package lexigo

import "github.com/hupe1980/lexigo/internal/kv"

// Backend selects where a database keeps its data.
type Backend interface {
	kvOptions() kv.Options
}

type localBackend struct {
	dir string
}

func (b localBackend) kvOptions() kv.Options { return kv.Options{Dir: b.dir} }

type memoryBackend struct{}

func (memoryBackend) kvOptions() kv.Options { return kv.Options{InMemory: true} }

// Local stores the database in dir, creating it if needed.
func Local(dir string) Backend { return localBackend{dir: dir} }

// InMemory keeps the database in memory. Its contents are lost on Close
// unless backed up first.
func InMemory() Backend { return memoryBackend{} }
