package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"
)

// StateStore keeps JSON-encoded state records keyed by id.
type StateStore struct {
	ds datastore.Batching
}

func New(ds datastore.Batching) *StateStore {
	return &StateStore{ds: ds}
}

func toKey(k interface{}) datastore.Key {
	switch t := k.(type) {
	case uint64:
		return datastore.NewKey(fmt.Sprint(t))
	case string:
		return datastore.NewKey(t)
	case fmt.Stringer:
		return datastore.NewKey(t.String())
	default:
		panic("unexpected key type")
	}
}

func (st *StateStore) Begin(ctx context.Context, i interface{}, state interface{}) error {
	k := toKey(i)
	has, err := st.ds.Has(ctx, k)
	if err != nil {
		return err
	}
	if has {
		return xerrors.Errorf("already tracking state for %v", i)
	}

	b, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return st.ds.Put(ctx, k, b)
}

// Put writes state for i, replacing any previous record.
func (st *StateStore) Put(ctx context.Context, i interface{}, state interface{}) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return st.ds.Put(ctx, toKey(i), b)
}

func (st *StateStore) End(ctx context.Context, i interface{}) error {
	k := toKey(i)
	has, err := st.ds.Has(ctx, k)
	if err != nil {
		return err
	}
	if !has {
		return xerrors.Errorf("No state for %s", i)
	}
	return st.ds.Delete(ctx, k)
}

func jsonMutator(mutator interface{}) func([]byte) ([]byte, error) {
	rmut := reflect.ValueOf(mutator)

	return func(in []byte) ([]byte, error) {
		state := reflect.New(rmut.Type().In(0).Elem())

		err := json.Unmarshal(in, state.Interface())
		if err != nil {
			return nil, err
		}

		out := rmut.Call([]reflect.Value{state})

		if err := out[0].Interface(); err != nil {
			return nil, err.(error)
		}

		return json.Marshal(state.Interface())
	}
}

// mutator func(*T) error
func (st *StateStore) Mutate(ctx context.Context, i interface{}, mutator interface{}) error {
	return st.mutate(ctx, i, jsonMutator(mutator))
}

func (st *StateStore) mutate(ctx context.Context, i interface{}, mutator func([]byte) ([]byte, error)) error {
	k := toKey(i)
	cur, err := st.ds.Get(ctx, k)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return xerrors.Errorf("No state for %s: %w", i, err)
		}
		return err
	}

	mutated, err := mutator(cur)
	if err != nil {
		return err
	}

	return st.ds.Put(ctx, k, mutated)
}

func (st *StateStore) Has(ctx context.Context, i interface{}) (bool, error) {
	return st.ds.Has(ctx, toKey(i))
}

func (st *StateStore) Get(ctx context.Context, i interface{}, out interface{}) error {
	k := toKey(i)
	val, err := st.ds.Get(ctx, k)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return xerrors.Errorf("No state for %s: %w", i, err)
		}
		return err
	}

	return json.Unmarshal(val, out)
}

// out: *[]T
//
// Records that fail to decode are skipped and reported together in the
// returned error, after every good record has been appended.
func (st *StateStore) List(ctx context.Context, out interface{}) error {
	res, err := st.ds.Query(ctx, query.Query{})
	if err != nil {
		return err
	}
	defer res.Close() //nolint:errcheck

	outT := reflect.TypeOf(out).Elem().Elem()
	rout := reflect.ValueOf(out)

	var errs error

	for {
		res, ok := res.NextSync()
		if !ok {
			break
		}
		if res.Error != nil {
			return res.Error
		}

		elem := reflect.New(outT)
		err := json.Unmarshal(res.Value, elem.Interface())
		if err != nil {
			errs = multierr.Append(errs, xerrors.Errorf("decoding state for key '%s': %w", res.Key, err))
			continue
		}

		rout.Elem().Set(reflect.Append(rout.Elem(), elem.Elem()))
	}

	return errs
}

// Batch groups writes that are flushed together on Commit.
type Batch struct {
	b datastore.Batch
}

func (st *StateStore) Batch(ctx context.Context) (*Batch, error) {
	b, err := st.ds.Batch(ctx)
	if err != nil {
		return nil, err
	}
	return &Batch{b: b}, nil
}

func (b *Batch) Put(ctx context.Context, i interface{}, state interface{}) error {
	v, err := json.Marshal(state)
	if err != nil {
		return xerrors.Errorf("encoding state for %v: %w", i, err)
	}
	return b.b.Put(ctx, toKey(i), v)
}

func (b *Batch) Delete(ctx context.Context, i interface{}) error {
	return b.b.Delete(ctx, toKey(i))
}

func (b *Batch) Commit(ctx context.Context) error {
	return b.b.Commit(ctx)
}
