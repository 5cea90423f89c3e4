// Package conflict decides what happens when a device submits a change
// against a version that is no longer the latest one.
package conflict

import (
	"errors"
	"fmt"
	"sync"
)

type Strategy string

const (
	ServerWins Strategy = "server_wins"
	ClientWins Strategy = "client_wins"
	Manual     Strategy = "manual"
)

var ErrUnknownStrategy = errors.New("unknown conflict strategy")

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case ServerWins, ClientWins, Manual:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Input describes one submission. IncomingVersion is the version the client
// proposes to create, i.e. its base version plus one.
type Input struct {
	IncomingVersion int64
	IncomingPayload []byte
	CurrentVersion  int64
	CurrentPayload  []byte
	Strategy        Strategy
}

// Decision is the outcome of Resolve. Version is always assigned by the
// server, never taken from the client.
type Decision struct {
	Accepted        bool
	Conflict        bool
	Deferred        bool
	Overwrote       bool
	Payload         []byte
	Version         int64
	StrategyApplied Strategy
}

// StrategyFunc resolves a detected conflict. It is only called when
// IsConflict(in.IncomingVersion, in.CurrentVersion) holds.
type StrategyFunc func(in Input) Decision

// IsConflict reports whether a client proposing incoming is working from a
// stale view of current. A client claiming a version far ahead of the server
// is not a conflict.
func IsConflict(incoming, current int64) bool {
	return incoming <= current
}

type Resolver struct {
	mu         sync.RWMutex
	strategies map[Strategy]StrategyFunc
}

func NewResolver() *Resolver {
	r := &Resolver{strategies: make(map[Strategy]StrategyFunc)}
	r.Register(ServerWins, serverWins)
	r.Register(ClientWins, clientWins)
	r.Register(Manual, manual)
	return r
}

// Register installs or replaces the function used for strategy s.
func (r *Resolver) Register(s Strategy, fn StrategyFunc) {
	r.mu.Lock()
	r.strategies[s] = fn
	r.mu.Unlock()
}

// Has reports whether a function is registered for s.
func (r *Resolver) Has(s Strategy) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[s]
	return ok
}

func (r *Resolver) Resolve(in Input) (Decision, error) {
	r.mu.RLock()
	fn, ok := r.strategies[in.Strategy]
	r.mu.RUnlock()
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, in.Strategy)
	}

	if !IsConflict(in.IncomingVersion, in.CurrentVersion) {
		return Decision{
			Accepted:        true,
			Payload:         in.IncomingPayload,
			Version:         in.CurrentVersion + 1,
			StrategyApplied: in.Strategy,
		}, nil
	}

	d := fn(in)
	d.Conflict = true
	d.StrategyApplied = in.Strategy
	return d, nil
}

func serverWins(in Input) Decision {
	return Decision{
		Accepted: false,
		Payload:  in.CurrentPayload,
		Version:  in.CurrentVersion,
	}
}

func clientWins(in Input) Decision {
	return Decision{
		Accepted:  true,
		Overwrote: true,
		Payload:   in.IncomingPayload,
		Version:   in.CurrentVersion + 1,
	}
}

// manual picks nothing; the caller has to park the change until someone
// supplies the resolved payload.
func manual(in Input) Decision {
	return Decision{
		Accepted: false,
		Deferred: true,
		Version:  in.CurrentVersion,
	}
}
