package app

import (
	"fmt"
	"sort"
	"sync"
)

// RunnerFactory builds a fresh command instance for one invocation.
type RunnerFactory func() IRunner

var (
	registryMu sync.RWMutex
	commands   = map[string]RunnerFactory{}
)

// RegisterRunner adds a launcher command. Commands register from init, so
// a blank or duplicate name is a programming error and panics.
func RegisterRunner(name string, factory RunnerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" || factory == nil {
		panic("app: command registered without name or factory")
	}
	if _, dup := commands[name]; dup {
		panic(fmt.Sprintf("app: command %q registered twice", name))
	}
	commands[name] = factory
}

// ResolveRunner builds the command registered under name.
func ResolveRunner(name string) (IRunner, error) {
	registryMu.RLock()
	factory, ok := commands[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	return factory(), nil
}

func MustResolveRunner(name string) IRunner {
	r, err := ResolveRunner(name)
	if err != nil {
		panic(err)
	}
	return r
}

// RunnerList returns the registered command names in order.
func RunnerList() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
