package repo

import (
	"context"
	"errors"

	"github.com/ipfs/go-datastore"

	"github.com/capmarket/capmarket/node/config"
)

var (
	ErrNoAPIEndpoint     = errors.New("no API Endpoint set")
	ErrRepoAlreadyLocked = errors.New("repo is already locked")
	ErrClosedRepo        = errors.New("repo is no longer open")
)

type Repo interface {
	// APIEndpoint returns the address of a running daemon's API
	APIEndpoint() (string, error)

	// Lock locks the repo for exclusive use.
	Lock() (LockedRepo, error)
}

type LockedRepo interface {
	// Close closes repo and removes lock.
	Close() error

	// Path returns the repo directory. Journals and other files live here.
	Path() string

	// Returns datastore defined in this repo.
	Datastore(ctx context.Context) (datastore.Batching, error)

	// Returns config in this repo
	Config() (*config.Root, error)
	SetConfig(func(*config.Root)) error

	// SetAPIEndpoint sets the endpoint of the current API
	// so it can be read by API clients
	SetAPIEndpoint(string) error
}
