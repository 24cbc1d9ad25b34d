package fitfunc

import (
	"log"
	"sync"
)

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry. Built-ins are registered on the first call.
// The returned registry has no internal locking; callers serialize mutation.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltins(defaultRegistry); err != nil {
			log.Panicf("[FitFunctionRegistry] failed to register built-ins: %v", err)
		}
		log.Printf("[FitFunctionRegistry] registered %d built-in entries", defaultRegistry.Len())
	})
	return defaultRegistry
}

// ResetDefault clears the process-wide registry and registers the built-ins again
func ResetDefault() error {
	r := Default()
	r.Clear()
	return RegisterBuiltins(r)
}
