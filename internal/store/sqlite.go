package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/gossip/dnet"
	"github.com/mattn/go-sqlite3"
)

type Address = spec.Address

const SecondsPerDay = 24 * 60 * 60

type SQLiteStore struct {
	db *sql.DB
}

type SQLiteStoreCtx struct {
	_db *sql.DB
	ctx context.Context
}

var _ spec.Store = &SQLiteStore{}
var _ spec.StoreCtx = SQLiteStoreCtx{}

const SQL_SCHEMA string = `
CREATE TABLE IF NOT EXISTS config (
	dayc INTEGER NOT NULL,
	last INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS core (
	address BLOB NOT NULL PRIMARY KEY,
	time INTEGER NOT NULL,
	services INTEGER NOT NULL,
	isnew BOOLEAN NOT NULL,
	dayc INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS core_time_i ON core (time);
CREATE INDEX IF NOT EXISTS core_isnew_i ON core (isnew);
`

// NewSQLiteStore returns a spec.Store implementation that uses SQLite
func NewSQLiteStore(fileName string, ctx context.Context) (*SQLiteStore, error) {
	backend := "sqlite3"
	db, err := sql.Open(backend, fileName)
	if err != nil {
		return nil, dbErr(err, "opening database")
	}
	store := &SQLiteStore{db: db}
	// limit concurrent access until we figure out a way to start transactions
	// with the BEGIN CONCURRENT statement in Go.
	db.SetMaxOpenConns(1)
	// init tables / indexes
	_, err = db.Exec(SQL_SCHEMA)
	if err != nil {
		db.Close()
		return nil, dbErr(err, "creating database schema")
	}
	// init config table
	sctx := SQLiteStoreCtx{_db: store.db, ctx: ctx}
	err = sctx.doTxn("init config", func(tx *sql.Tx) error {
		config := tx.QueryRow("SELECT dayc,last FROM config LIMIT 1")
		var dayc int64
		var last int64
		err := config.Scan(&dayc, &last)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				_, err = tx.Exec("INSERT INTO config (dayc,last) VALUES (1,?)", unixDayStamp())
			}
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) WithCtx(ctx context.Context) spec.StoreCtx {
	return SQLiteStoreCtx{
		_db: s.db,
		ctx: ctx,
	}
}

// The number of whole days since the unix epoch.
func unixDayStamp() int64 {
	return time.Now().Unix() / SecondsPerDay
}

func IsConflict(err error) bool {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		if sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked {
			return true
		}
	}
	return false
}

func (s SQLiteStoreCtx) doTxn(name string, work func(tx *sql.Tx) error) error {
	db := s._db
	limit := 120
	for {
		tx, err := db.BeginTx(s.ctx, nil)
		if err != nil {
			if IsConflict(err) {
				s.Sleep(250 * time.Millisecond)
				limit--
				if limit != 0 {
					continue
				}
			}
			return fmt.Errorf("[Store] cannot begin transaction: %w", dbErr(err, name))
		}
		err = work(tx)
		if err != nil {
			tx.Rollback()
			if IsConflict(err) {
				s.Sleep(250 * time.Millisecond)
				limit--
				if limit != 0 {
					continue
				}
			}
			return fmt.Errorf("[Store] %v: %w", name, dbErr(err, name))
		}
		err = tx.Commit()
		if err != nil {
			if IsConflict(err) {
				s.Sleep(250 * time.Millisecond)
				limit--
				if limit != 0 {
					continue
				}
			}
			return fmt.Errorf("[Store] cannot commit %v: %w", name, dbErr(err, name))
		}
		return nil
	}
}

func (s SQLiteStoreCtx) Sleep(dur time.Duration) {
	select {
	case <-s.ctx.Done():
	case <-time.After(dur):
	}
}

func dbErr(err error, where string) error {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		if sqErr.Code == sqlite3.ErrConstraint {
			// Constraint violation, e.g. a duplicate key.
			return fmt.Errorf("SQLiteStore: %w: %s: %v", spec.ErrAlreadyExists, where, err)
		}
		if sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked {
			// SQLite has a single-writer policy, even in WAL (write-ahead) mode.
			// SQLite will return BUSY if the database is locked by another connection.
			// We treat this as a transient database conflict, and the caller should retry.
			return fmt.Errorf("SQLiteStore: %w: %s: %v", spec.ErrDBConflict, where, err)
		}
	}
	if errors.Is(err, spec.ErrNotFound) {
		return err
	}
	return fmt.Errorf("SQLiteStore: %w: %s: %v", spec.ErrDBProblem, where, err)
}

// STORE INTERFACE

func (s SQLiteStoreCtx) CoreStats() (mapSize int, newNodes int, err error) {
	err = s.doTxn("CoreStats", func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT COUNT(address), COUNT(CASE WHEN isnew THEN 1 END) FROM core")
		return row.Scan(&mapSize, &newNodes)
	})
	return
}

func (s SQLiteStoreCtx) NodeList() (res spec.NodeListRes, err error) {
	err = s.doTxn("NodeList", func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT address,CAST(time AS INTEGER),services FROM core ORDER BY time DESC")
		if err != nil {
			return fmt.Errorf("query: %v", err)
		}
		defer rows.Close()
		res.Core = []spec.CoreNode{}
		for rows.Next() {
			var addr []byte
			var time int64
			var services uint64
			err := rows.Scan(&addr, &time, &services)
			if err != nil {
				return fmt.Errorf("scanning row: %v", err)
			}
			s_adr, err := dnet.AddressFromBytes(addr)
			if err != nil {
				return fmt.Errorf("bad node address: %v", err)
			}
			res.Core = append(res.Core, spec.CoreNode{
				Address:  s_adr.String(),
				Time:     time,
				Services: services,
			})
		}
		return rows.Err() // docs say this check is required!
	})
	return
}

// TrimNodes expires core nodes after MaxCoreNodeDays.
//
// To take account of the possibility that this software has not
// been run in the last 30 days (which would result in immediately
// expiring all nodes in the database) we use a system where:
//
// We keep a day counter that we increment once per day.
// All nodes, when updated, store the current day counter + 30.
// Nodes are expired once their stored day-count is < today.
//
// This causes node-expiry to lag by the number of offline days.
func (s SQLiteStoreCtx) TrimNodes() (advanced bool, remCore int64, err error) {
	err = s.doTxn("TrimNodes", func(tx *sql.Tx) error {
		// check if date has changed
		row := tx.QueryRow("SELECT dayc,last FROM config LIMIT 1")
		var dayc int64
		var last int64
		err := row.Scan(&dayc, &last)
		if err != nil {
			return fmt.Errorf("SELECT config: %v", err)
		}
		today := unixDayStamp()
		if last != today {
			// advance the day-count and save unix-daystamp
			dayc += 1
			advanced = true
			_, err := tx.Exec("UPDATE config SET dayc=?,last=?", dayc, today)
			if err != nil {
				return fmt.Errorf("UPDATE config: %v", err)
			}
			// expire core nodes
			res, err := tx.Exec("DELETE FROM core WHERE dayc < ?", dayc)
			if err != nil {
				return fmt.Errorf("DELETE core: %v", err)
			}
			remCore, err = res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows-affected: %v", err)
			}
		}
		return nil
	})
	return
}

// AddCoreNode inserts a node or refreshes it; the stored time
// never moves backwards.
func (s SQLiteStoreCtx) AddCoreNode(address Address, unixTimeSec int64, services uint64) error {
	return s.doTxn("AddCoreNode", func(tx *sql.Tx) error {
		addrKey := address.ToBytes()
		res, err := tx.Exec("UPDATE core SET time=MAX(time,?), services=?, dayc=?+(SELECT dayc FROM config LIMIT 1) WHERE address=?", unixTimeSec, services, spec.MaxCoreNodeDays, addrKey)
		if err != nil {
			return fmt.Errorf("update: %v", err)
		}
		num, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows-affected: %v", err)
		}
		if num == 0 {
			_, e := tx.Exec("INSERT INTO core (address, time, services, isnew, dayc) VALUES (?1,?2,?3,true,?4+(SELECT dayc FROM config LIMIT 1))",
				addrKey, unixTimeSec, services, spec.MaxCoreNodeDays)
			if e != nil {
				return fmt.Errorf("insert: %w", e)
			}
		}
		return nil
	})
}

func (s SQLiteStoreCtx) UpdateCoreTime(address Address) (err error) {
	return s.doTxn("UpdateCoreTime", func(tx *sql.Tx) error {
		addrKey := address.ToBytes()
		unixTimeSec := time.Now().Unix()
		_, err := tx.Exec("UPDATE core SET time=?, dayc=?+(SELECT dayc FROM config LIMIT 1) WHERE address=?", unixTimeSec, spec.MaxCoreNodeDays, addrKey)
		if err != nil {
			return fmt.Errorf("update: %v", err)
		}
		return nil
	})
}

// ChooseCoreNode picks a random new node if there is one (and marks it
// no longer new), otherwise a random known node.
func (s SQLiteStoreCtx) ChooseCoreNode() (res Address, err error) {
	err = s.doTxn("ChooseCoreNode", func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT address FROM core WHERE isnew=TRUE ORDER BY RANDOM() LIMIT 1")
		var addr []byte
		err := row.Scan(&addr)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("query-is-new: %v", err)
			}
			row = tx.QueryRow("SELECT address FROM core ORDER BY RANDOM() LIMIT 1")
			err = row.Scan(&addr)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return spec.ErrNotFound
				}
				return fmt.Errorf("query-not-new: %v", err)
			}
		} else {
			_, err = tx.Exec("UPDATE core SET isnew=FALSE WHERE address=?", addr)
			if err != nil {
				return fmt.Errorf("update-is-new: %v", err)
			}
		}
		res, err = dnet.AddressFromBytes(addr)
		if err != nil {
			return fmt.Errorf("invalid address: %v", err)
		}
		return nil
	})
	return
}
