package spec

import (
	"context"
	"errors"
	"time"

	"code.dogecoin.org/gossip/dnet"
)

// Address is an IP:Port combination.
type Address = dnet.Address

// Ignore addresses last seen more than 5 days ago.
const ExpiryTime = time.Duration(5 * 24 * time.Hour)

// Delete stored nodes that have not been refreshed for this many days.
const MaxCoreNodeDays = 30

var (
	ErrNotFound      = errors.New("not-found")
	ErrAlreadyExists = errors.New("already-exists")
	ErrDBConflict    = errors.New("db-conflict")
	ErrDBProblem     = errors.New("db-problem")
)

// Store is the top-level interface (e.g. SQLiteStore)
type Store interface {
	WithCtx(ctx context.Context) StoreCtx
	Close()
}

// StoreCtx is a Store bound to a cancellable Context.
type StoreCtx interface {
	CoreStats() (mapSize int, newNodes int, err error)
	NodeList() (res NodeListRes, err error)
	TrimNodes() (advanced bool, remCore int64, err error)
	AddCoreNode(address Address, unixTimeSec int64, services uint64) error
	UpdateCoreTime(address Address) error
	ChooseCoreNode() (Address, error) // ErrNotFound if the store is empty
}

type NodeListRes struct {
	Core []CoreNode `json:"core"`
}

type CoreNode struct {
	Address  string `json:"address"`
	Time     int64  `json:"time"`
	Services uint64 `json:"services"`
}
