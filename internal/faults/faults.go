// Package faults decides when a store operation should fail on purpose.
// Production wiring uses Never unless a FAULT_* rate is configured.
package faults

import (
	"math/rand"
	"sync"
)

const (
	OpAddDocument   = "add_document"
	OpUpdateProject = "update_project"
)

type Injector interface {
	Fail(op string) bool
}

type never struct{}

func (never) Fail(string) bool { return false }

type always struct{}

func (always) Fail(string) bool { return true }

// Never is the production injector.
var Never Injector = never{}

// Always fails every operation.
var Always Injector = always{}

// Rate fails each operation independently with its configured probability.
type Rate struct {
	mu    sync.Mutex
	rng   *rand.Rand
	rates map[string]float64
}

// NewRate returns an injector seeded with seed. Operations missing from
// rates never fail.
func NewRate(seed int64, rates map[string]float64) *Rate {
	copied := make(map[string]float64, len(rates))
	for op, r := range rates {
		copied[op] = r
	}
	return &Rate{rng: rand.New(rand.NewSource(seed)), rates: copied}
}

func (r *Rate) Fail(op string) bool {
	rate, ok := r.rates[op]
	if !ok || rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < rate
}

// Script replays a fixed outcome sequence per operation and then stops
// failing. Tests use it to fail exactly the calls they care about.
type Script struct {
	mu    sync.Mutex
	plans map[string][]bool
	calls map[string]int
}

func NewScript() *Script {
	return &Script{plans: map[string][]bool{}, calls: map[string]int{}}
}

// On sets the outcomes for the next calls of op; true means fail.
func (s *Script) On(op string, outcomes ...bool) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[op] = append(s.plans[op], outcomes...)
	return s
}

func (s *Script) Fail(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	plan := s.plans[op]
	if len(plan) == 0 {
		return false
	}
	s.plans[op] = plan[1:]
	return plan[0]
}

// Calls reports how many times op was consulted.
func (s *Script) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}
