// Package leveldb is a goleveldb-backed reference implementation of
// pool.Mutable, grounded on the teacher's storage.LevelDB/LevelBlockStore:
// JSON-encoded values under prefixed keys, with a leveldb.Iterator scan
// standing in for the teacher's BlockStore height index.
package leveldb

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

const (
	prefixValidatedDealing   = "validated/dealing/"
	prefixValidatedSupport   = "validated/support/"
	prefixUnvalidatedDealing = "unvalidated/dealing/"
	prefixUnvalidatedSupport = "unvalidated/support/"
)

// Pool is an artifact pool persisted to a LevelDB database on disk.
// The insertion counter used to mint IDs is kept in memory only: a
// process restart resumes counting from zero, which can collide with
// IDs from before the restart. Acceptable for a reference
// implementation; a production pool would persist the counter too.
type Pool struct {
	mu     sync.Mutex
	db     *leveldb.DB
	nextID uint64
}

// Open opens (or creates) a pool backed by a LevelDB database at path.
func Open(path string) (*Pool, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return &Pool{db: db}, nil
}

// Close releases the underlying database handle.
func (p *Pool) Close() error {
	return p.db.Close()
}

func (p *Pool) newID(prefix string) types.MessageID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	return types.MessageID(fmt.Sprintf("%s-%d", prefix, p.nextID))
}

type unvalidatedRecord[T any] struct {
	Item   T
	PeerID types.NodeID
}

func putJSON(db *leveldb.DB, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Put([]byte(key), data, nil)
}

func scanJSON[T any](db *leveldb.DB, prefix string) ([]pool.Entry[T], error) {
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	var out []pool.Entry[T]
	for iter.Next() {
		id := types.MessageID(iter.Key()[len(prefix):])
		var item T
		if err := json.Unmarshal(iter.Value(), &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		out = append(out, pool.Entry[T]{ID: id, Item: item})
	}
	return out, iter.Error()
}

func scanUnvalidatedJSON[T any](db *leveldb.DB, prefix string) ([]pool.UnvalidatedEntry[T], error) {
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	var out []pool.UnvalidatedEntry[T]
	for iter.Next() {
		id := types.MessageID(iter.Key()[len(prefix):])
		var rec unvalidatedRecord[T]
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		out = append(out, pool.UnvalidatedEntry[T]{ID: id, Item: rec.Item, PeerID: rec.PeerID})
	}
	return out, iter.Error()
}

// Validated returns the validated partition view.
func (p *Pool) Validated() pool.View { return validatedView{p} }

// Unvalidated returns the unvalidated partition view.
func (p *Pool) Unvalidated() pool.UnvalidatedView { return unvalidatedView{p} }

type validatedView struct{ p *Pool }

func (v validatedView) Dealings() []pool.Entry[types.Dealing] {
	out, err := scanJSON[types.Dealing](v.p.db, prefixValidatedDealing)
	if err != nil {
		panic(err)
	}
	return out
}

func (v validatedView) DealingSupport() []pool.Entry[types.DealingSupport] {
	out, err := scanJSON[types.DealingSupport](v.p.db, prefixValidatedSupport)
	if err != nil {
		panic(err)
	}
	return out
}

type unvalidatedView struct{ p *Pool }

func (v unvalidatedView) Dealings() []pool.UnvalidatedEntry[types.Dealing] {
	out, err := scanUnvalidatedJSON[types.Dealing](v.p.db, prefixUnvalidatedDealing)
	if err != nil {
		panic(err)
	}
	return out
}

func (v unvalidatedView) DealingSupport() []pool.UnvalidatedEntry[types.DealingSupport] {
	out, err := scanUnvalidatedJSON[types.DealingSupport](v.p.db, prefixUnvalidatedSupport)
	if err != nil {
		panic(err)
	}
	return out
}

// InsertUnvalidated adds msg to the unvalidated partition as arrived
// from peer, assigning it a fresh ID.
func (p *Pool) InsertUnvalidated(msg types.Message, peer types.NodeID) types.MessageID {
	switch m := msg.(type) {
	case types.Dealing:
		id := p.newID("dealing")
		if err := putJSON(p.db, prefixUnvalidatedDealing+string(id), unvalidatedRecord[types.Dealing]{Item: m, PeerID: peer}); err != nil {
			panic(err)
		}
		return id
	case types.DealingSupport:
		id := p.newID("support")
		if err := putJSON(p.db, prefixUnvalidatedSupport+string(id), unvalidatedRecord[types.DealingSupport]{Item: m, PeerID: peer}); err != nil {
			panic(err)
		}
		return id
	default:
		panic(fmt.Sprintf("leveldb pool: unsupported message type %T", msg))
	}
}

// Apply performs every change action in order, within a single batch.
func (p *Pool) Apply(changes types.ChangeSet) error {
	batch := new(leveldb.Batch)
	for _, c := range changes {
		if err := p.applyOne(batch, c); err != nil {
			return err
		}
	}
	return p.db.Write(batch, nil)
}

func (p *Pool) applyOne(batch *leveldb.Batch, c types.ChangeAction) error {
	switch a := c.(type) {
	case types.AddToValidated:
		switch m := a.Message.(type) {
		case types.Dealing:
			id := p.newID("dealing")
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			batch.Put([]byte(prefixValidatedDealing+string(id)), data)
		case types.DealingSupport:
			id := p.newID("support")
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			batch.Put([]byte(prefixValidatedSupport+string(id)), data)
		default:
			return fmt.Errorf("leveldb pool: unsupported message type %T", a.Message)
		}
	case types.MoveToValidated:
		if ok, err := p.moveDealing(batch, a.ID); err != nil {
			return err
		} else if ok {
			return nil
		}
		if ok, err := p.moveSupport(batch, a.ID); err != nil {
			return err
		} else if ok {
			return nil
		}
		return fmt.Errorf("leveldb pool: MoveToValidated: unknown unvalidated entry %s", a.ID)
	case types.RemoveUnvalidated:
		batch.Delete([]byte(prefixUnvalidatedDealing + string(a.ID)))
		batch.Delete([]byte(prefixUnvalidatedSupport + string(a.ID)))
	case types.HandleInvalid:
		// Usually targets an unvalidated entry, but send_dealing_support
		// can also condemn an already-validated dealing it finds
		// permanently broken on private verification (spec §4.8), so
		// delete from every partition; deleting an absent key is a no-op.
		batch.Delete([]byte(prefixUnvalidatedDealing + string(a.ID)))
		batch.Delete([]byte(prefixUnvalidatedSupport + string(a.ID)))
		batch.Delete([]byte(prefixValidatedDealing + string(a.ID)))
		batch.Delete([]byte(prefixValidatedSupport + string(a.ID)))
	default:
		return fmt.Errorf("leveldb pool: unsupported change action %T", c)
	}
	return nil
}

func (p *Pool) moveDealing(batch *leveldb.Batch, id types.MessageID) (bool, error) {
	key := prefixUnvalidatedDealing + string(id)
	data, err := p.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var rec unvalidatedRecord[types.Dealing]
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, err
	}
	out, err := json.Marshal(rec.Item)
	if err != nil {
		return false, err
	}
	batch.Delete([]byte(key))
	batch.Put([]byte(prefixValidatedDealing+string(id)), out)
	return true, nil
}

func (p *Pool) moveSupport(batch *leveldb.Batch, id types.MessageID) (bool, error) {
	key := prefixUnvalidatedSupport + string(id)
	data, err := p.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var rec unvalidatedRecord[types.DealingSupport]
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, err
	}
	out, err := json.Marshal(rec.Item)
	if err != nil {
		return false, err
	}
	batch.Delete([]byte(key))
	batch.Put([]byte(prefixValidatedSupport+string(id)), out)
	return true, nil
}
