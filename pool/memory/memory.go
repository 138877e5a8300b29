// Package memory is an in-memory reference implementation of
// pool.Mutable, grounded on the teacher's mempool: a map keyed by ID plus
// an insertion-ordered slice for deterministic iteration.
package memory

import (
	"fmt"
	"sync"

	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

// Pool is a thread-safe, in-memory artifact pool.
type Pool struct {
	mu sync.RWMutex

	nextID uint64

	validatedDealings    map[types.MessageID]types.Dealing
	validatedDealingsOrd []types.MessageID
	validatedSupport     map[types.MessageID]types.DealingSupport
	validatedSupportOrd  []types.MessageID

	unvalidatedDealings    map[types.MessageID]pool.UnvalidatedEntry[types.Dealing]
	unvalidatedDealingsOrd []types.MessageID
	unvalidatedSupport     map[types.MessageID]pool.UnvalidatedEntry[types.DealingSupport]
	unvalidatedSupportOrd  []types.MessageID
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		validatedDealings:   make(map[types.MessageID]types.Dealing),
		validatedSupport:    make(map[types.MessageID]types.DealingSupport),
		unvalidatedDealings: make(map[types.MessageID]pool.UnvalidatedEntry[types.Dealing]),
		unvalidatedSupport:  make(map[types.MessageID]pool.UnvalidatedEntry[types.DealingSupport]),
	}
}

func (p *Pool) newID(prefix string) types.MessageID {
	p.nextID++
	return types.MessageID(fmt.Sprintf("%s-%d", prefix, p.nextID))
}

// Validated returns the validated partition view.
func (p *Pool) Validated() pool.View { return validatedView{p} }

// Unvalidated returns the unvalidated partition view.
func (p *Pool) Unvalidated() pool.UnvalidatedView { return unvalidatedView{p} }

type validatedView struct{ p *Pool }

func (v validatedView) Dealings() []pool.Entry[types.Dealing] {
	v.p.mu.RLock()
	defer v.p.mu.RUnlock()
	out := make([]pool.Entry[types.Dealing], 0, len(v.p.validatedDealingsOrd))
	for _, id := range v.p.validatedDealingsOrd {
		if d, ok := v.p.validatedDealings[id]; ok {
			out = append(out, pool.Entry[types.Dealing]{ID: id, Item: d})
		}
	}
	return out
}

func (v validatedView) DealingSupport() []pool.Entry[types.DealingSupport] {
	v.p.mu.RLock()
	defer v.p.mu.RUnlock()
	out := make([]pool.Entry[types.DealingSupport], 0, len(v.p.validatedSupportOrd))
	for _, id := range v.p.validatedSupportOrd {
		if s, ok := v.p.validatedSupport[id]; ok {
			out = append(out, pool.Entry[types.DealingSupport]{ID: id, Item: s})
		}
	}
	return out
}

type unvalidatedView struct{ p *Pool }

func (v unvalidatedView) Dealings() []pool.UnvalidatedEntry[types.Dealing] {
	v.p.mu.RLock()
	defer v.p.mu.RUnlock()
	out := make([]pool.UnvalidatedEntry[types.Dealing], 0, len(v.p.unvalidatedDealingsOrd))
	for _, id := range v.p.unvalidatedDealingsOrd {
		if e, ok := v.p.unvalidatedDealings[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (v unvalidatedView) DealingSupport() []pool.UnvalidatedEntry[types.DealingSupport] {
	v.p.mu.RLock()
	defer v.p.mu.RUnlock()
	out := make([]pool.UnvalidatedEntry[types.DealingSupport], 0, len(v.p.unvalidatedSupportOrd))
	for _, id := range v.p.unvalidatedSupportOrd {
		if e, ok := v.p.unvalidatedSupport[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// InsertUnvalidated adds msg to the unvalidated partition as arrived
// from peer. Every call is assigned a fresh ID, even for logically
// duplicate content, so the core can classify duplicate-in-batch
// separately from the pool's own deduplication.
func (p *Pool) InsertUnvalidated(msg types.Message, peer types.NodeID) types.MessageID {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch m := msg.(type) {
	case types.Dealing:
		id := p.newID("dealing")
		p.unvalidatedDealings[id] = pool.UnvalidatedEntry[types.Dealing]{ID: id, Item: m, PeerID: peer}
		p.unvalidatedDealingsOrd = append(p.unvalidatedDealingsOrd, id)
		return id
	case types.DealingSupport:
		id := p.newID("support")
		p.unvalidatedSupport[id] = pool.UnvalidatedEntry[types.DealingSupport]{ID: id, Item: m, PeerID: peer}
		p.unvalidatedSupportOrd = append(p.unvalidatedSupportOrd, id)
		return id
	default:
		panic(fmt.Sprintf("memory pool: unsupported message type %T", msg))
	}
}

// Apply performs every change action in order.
func (p *Pool) Apply(changes types.ChangeSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range changes {
		if err := p.applyOne(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) applyOne(c types.ChangeAction) error {
	switch a := c.(type) {
	case types.AddToValidated:
		switch m := a.Message.(type) {
		case types.Dealing:
			id := p.newID("dealing")
			p.validatedDealings[id] = m
			p.validatedDealingsOrd = append(p.validatedDealingsOrd, id)
		case types.DealingSupport:
			id := p.newID("support")
			p.validatedSupport[id] = m
			p.validatedSupportOrd = append(p.validatedSupportOrd, id)
		default:
			return fmt.Errorf("memory pool: unsupported message type %T", a.Message)
		}
	case types.MoveToValidated:
		if e, ok := p.unvalidatedDealings[a.ID]; ok {
			delete(p.unvalidatedDealings, a.ID)
			p.unvalidatedDealingsOrd = removeID(p.unvalidatedDealingsOrd, a.ID)
			p.validatedDealings[a.ID] = e.Item
			p.validatedDealingsOrd = append(p.validatedDealingsOrd, a.ID)
			return nil
		}
		if e, ok := p.unvalidatedSupport[a.ID]; ok {
			delete(p.unvalidatedSupport, a.ID)
			p.unvalidatedSupportOrd = removeID(p.unvalidatedSupportOrd, a.ID)
			p.validatedSupport[a.ID] = e.Item
			p.validatedSupportOrd = append(p.validatedSupportOrd, a.ID)
			return nil
		}
		return fmt.Errorf("memory pool: MoveToValidated: unknown unvalidated entry %s", a.ID)
	case types.RemoveUnvalidated:
		p.removeUnvalidated(a.ID)
	case types.HandleInvalid:
		// Usually targets an unvalidated entry, but send_dealing_support
		// can also condemn an already-validated dealing it finds
		// permanently broken on private verification (spec §4.8), so fall
		// back to the validated partition.
		if !p.removeUnvalidated(a.ID) {
			p.removeValidated(a.ID)
		}
	default:
		return fmt.Errorf("memory pool: unsupported change action %T", c)
	}
	return nil
}

func (p *Pool) removeUnvalidated(id types.MessageID) bool {
	if _, ok := p.unvalidatedDealings[id]; ok {
		delete(p.unvalidatedDealings, id)
		p.unvalidatedDealingsOrd = removeID(p.unvalidatedDealingsOrd, id)
		return true
	}
	if _, ok := p.unvalidatedSupport[id]; ok {
		delete(p.unvalidatedSupport, id)
		p.unvalidatedSupportOrd = removeID(p.unvalidatedSupportOrd, id)
		return true
	}
	return false
}

func (p *Pool) removeValidated(id types.MessageID) {
	if _, ok := p.validatedDealings[id]; ok {
		delete(p.validatedDealings, id)
		p.validatedDealingsOrd = removeID(p.validatedDealingsOrd, id)
		return
	}
	if _, ok := p.validatedSupport[id]; ok {
		delete(p.validatedSupport, id)
		p.validatedSupportOrd = removeID(p.validatedSupportOrd, id)
	}
}

func removeID(ord []types.MessageID, id types.MessageID) []types.MessageID {
	out := ord[:0]
	for _, x := range ord {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
