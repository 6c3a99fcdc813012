package spi

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ContractName returns the identity of contract type C: its package path and
// type name joined by '.', the same qualified name spigen writes manifests for.
func ContractName[C any]() string {
	return typeName(reflect.TypeFor[C]())
}

func typeName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ContractTable records the declared policy of each contract.
// It is safe for concurrent use.
type ContractTable struct {
	mu    sync.RWMutex
	items map[string]Policy
}

// NewContractTable returns an empty table.
func NewContractTable() *ContractTable {
	return &ContractTable{items: map[string]Policy{}}
}

// Declare records the policy of contract name. Declaring the same contract
// again with the same policy is a no-op; a different policy is an error
// because a policy never changes after declaration.
func (t *ContractTable) Declare(name string, p Policy) error {
	if name == "" {
		return fmt.Errorf("spi: contract name is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.items[name]; ok {
		if cur != p {
			return fmt.Errorf("spi: contract %s already declared %s, cannot redeclare %s", name, cur, p)
		}
		return nil
	}
	t.items[name] = p
	return nil
}

// Policy returns the declared policy of contract name.
func (t *ContractTable) Policy(name string) (Policy, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.items[name]
	return p, ok
}

// Names returns the declared contract names in sorted order.
func (t *ContractTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.items))
	for name := range t.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declare records the policy of contract C in the process contract table.
// Generated contract files call it from init; a conflicting redeclaration panics.
func Declare[C any](p Policy) {
	if err := defaultContracts.Declare(ContractName[C](), p); err != nil {
		panic(err)
	}
}
