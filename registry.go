package gosequence

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu     sync.RWMutex
	actionRegistry = make(map[string]ActionFunc)
)

// RegisterAction registers an action function under a unique ID so that
// serialized sequence definitions can reference it. This should be called
// at application startup for every action a definition may name.
// It will panic if an action with the same ID is already registered.
func RegisterAction(id string, fn ActionFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := actionRegistry[id]; exists {
		panic(fmt.Sprintf("action with id '%s' is already registered", id))
	}
	actionRegistry[id] = fn
}

// ActionFromRegistry looks up a registered action function by its ID.
// It returns an error if the action ID is not found.
func ActionFromRegistry(id string) (ActionFunc, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := actionRegistry[id]
	if !ok {
		return nil, fmt.Errorf("action id %q: %w", id, ErrUnknownAction)
	}
	return fn, nil
}

// RegisteredActions returns the sorted IDs of every registered action.
func RegisteredActions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(actionRegistry))
	for id := range actionRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
