package deployment

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/abacus-network/abacus-deploy/contracts"
)

// ErrDomainNotFound is returned when no replica is held for a domain.
var ErrDomainNotFound = errors.New("domain not found")

// ReplicaProxy is the beacon proxy of a replica.
type ReplicaProxy = BeaconProxy[*contracts.Replica]

// ReplicaSet holds one replica beacon proxy per remote domain.
type ReplicaSet struct {
	replicas map[uint32]ReplicaProxy
}

// NewReplicaSet builds a set from a domain keyed map. The map is copied.
func NewReplicaSet(replicas map[uint32]ReplicaProxy) ReplicaSet {
	return ReplicaSet{replicas: maps.Clone(replicas)}
}

// Get returns the replica of domain, or ErrDomainNotFound.
func (s ReplicaSet) Get(domain uint32) (ReplicaProxy, error) {
	r, ok := s.replicas[domain]
	if !ok {
		return ReplicaProxy{}, fmt.Errorf("replica for domain %d: %w", domain, ErrDomainNotFound)
	}

	return r, nil
}

// Has reports whether a replica is held for domain.
func (s ReplicaSet) Has(domain uint32) bool {
	_, ok := s.replicas[domain]
	return ok
}

// Domains returns the remote domains in ascending order.
func (s ReplicaSet) Domains() []uint32 {
	return slices.Sorted(maps.Keys(s.replicas))
}

// Len returns the number of replicas.
func (s ReplicaSet) Len() int {
	return len(s.replicas)
}

// All iterates the replicas in ascending domain order.
func (s ReplicaSet) All() iter.Seq2[uint32, ReplicaProxy] {
	return func(yield func(uint32, ReplicaProxy) bool) {
		for _, domain := range s.Domains() {
			if !yield(domain, s.replicas[domain]) {
				return
			}
		}
	}
}

// ToAddresses returns the address record of every replica keyed by domain.
func (s ReplicaSet) ToAddresses() map[uint32]ProxiedAddress {
	out := make(map[uint32]ProxiedAddress, len(s.replicas))
	for domain, r := range s.replicas {
		out[domain] = r.ToAddresses()
	}

	return out
}
