package blacklist

import (
	"context"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
)

var log = logging.Logger("blacklist")

var dsPrefix = datastore.NewKey("/blacklist")

// Blacklist is the set of identities each participant refuses to deal with.
type Blacklist interface {
	Check(ctx context.Context, owner, who address.Address) (bool, error)
	Add(ctx context.Context, owner, who address.Address) error
	Remove(ctx context.Context, owner, who address.Address) error
	List(ctx context.Context, owner address.Address) ([]address.Address, error)
}

// Store keeps blacklist entries as empty values under /<owner>/<who>.
type Store struct {
	ds datastore.Datastore
}

var _ Blacklist = (*Store)(nil)

func NewStore(ds datastore.Datastore) *Store {
	return &Store{ds: namespace.Wrap(ds, dsPrefix)}
}

func entryKey(owner, who address.Address) datastore.Key {
	return datastore.KeyWithNamespaces([]string{owner.String(), who.String()})
}

func (s *Store) Check(ctx context.Context, owner, who address.Address) (bool, error) {
	if owner == address.Undef || who == address.Undef {
		return false, nil
	}
	has, err := s.ds.Has(ctx, entryKey(owner, who))
	if err != nil {
		return false, xerrors.Errorf("checking blacklist of %s: %w", owner, err)
	}
	return has, nil
}

func (s *Store) Add(ctx context.Context, owner, who address.Address) error {
	if err := s.ds.Put(ctx, entryKey(owner, who), []byte{}); err != nil {
		return xerrors.Errorf("adding %s to blacklist of %s: %w", who, owner, err)
	}
	log.Infow("blacklisted", "owner", owner, "who", who)
	return nil
}

func (s *Store) Remove(ctx context.Context, owner, who address.Address) error {
	if err := s.ds.Delete(ctx, entryKey(owner, who)); err != nil {
		return xerrors.Errorf("removing %s from blacklist of %s: %w", who, owner, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner address.Address) ([]address.Address, error) {
	res, err := s.ds.Query(ctx, query.Query{
		Prefix:   datastore.NewKey(owner.String()).String(),
		KeysOnly: true,
	})
	if err != nil {
		return nil, err
	}
	defer res.Close() //nolint:errcheck

	var out []address.Address
	for r := range res.Next() {
		if r.Error != nil {
			return nil, r.Error
		}
		who, err := address.NewFromString(datastore.RawKey(r.Key).BaseNamespace())
		if err != nil {
			return nil, xerrors.Errorf("parsing blacklist key %s: %w", r.Key, err)
		}
		out = append(out, who)
	}
	return out, nil
}
