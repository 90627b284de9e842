package chain

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/abacus-network/abacus-deploy/chain/evm"
)

// ErrUnknownChain is returned when a chain name is not registered.
var ErrUnknownChain = errors.New("unknown chain")

// Registry maps chain names to their connections. The set of chains is fixed at
// construction and connections are immutable, so a Registry is safe for concurrent use.
type Registry struct {
	connections map[string]*evm.Connection
}

// NewRegistry builds a connection for every chain config. It fails on the first invalid
// config without returning a partial registry.
func NewRegistry(configs map[string]evm.ConnectionConfig) (Registry, error) {
	connections := make(map[string]*evm.Connection, len(configs))

	// Sort for deterministic error reporting
	for _, name := range slices.Sorted(maps.Keys(configs)) {
		conn, err := evm.NewConnection(name, configs[name])
		if err != nil {
			return Registry{}, fmt.Errorf("failed to build connection for chain %s: %w", name, err)
		}
		connections[name] = conn
	}

	return Registry{connections: connections}, nil
}

// NewRegistryFromConnections initializes a Registry from already built connections, keyed
// by their names.
func NewRegistryFromConnections(conns ...*evm.Connection) Registry {
	connections := make(map[string]*evm.Connection, len(conns))
	for _, conn := range conns {
		connections[conn.Name()] = conn
	}

	return Registry{connections: connections}
}

// Get returns the connection registered under name.
func (r Registry) Get(name string) (*evm.Connection, error) {
	conn, ok := r.connections[name]
	if !ok {
		return nil, fmt.Errorf("chain %s: %w", name, ErrUnknownChain)
	}

	return conn, nil
}

// Exists checks if a chain with the given name is registered.
func (r Registry) Exists(name string) bool {
	_, ok := r.connections[name]

	return ok
}

// Names returns the registered chain names in sorted order.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.connections))
}

// Len returns the number of registered chains.
func (r Registry) Len() int {
	return len(r.connections)
}

// All returns an iterator over all connections in chain name order.
func (r Registry) All() iter.Seq2[string, *evm.Connection] {
	return func(yield func(string, *evm.Connection) bool) {
		for _, name := range r.Names() {
			if !yield(name, r.connections[name]) {
				return
			}
		}
	}
}
