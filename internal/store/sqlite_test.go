package store

import (
	"context"
	"database/sql"
	"net"
	"path/filepath"
	"testing"

	"code.dogecoin.org/dogeaddr/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), context.Background())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func addr(ip string, port uint16) Address {
	return Address{Host: net.ParseIP(ip), Port: port}
}

func TestAddAndListCoreNodes(t *testing.T) {
	s := newTestStore(t)
	st := s.WithCtx(context.Background())

	require.NoError(t, st.AddCoreNode(addr("1.2.3.4", 22556), 1700000000, 1))
	require.NoError(t, st.AddCoreNode(addr("5.6.7.8", 22556), 1700000100, 5))
	// an older sighting does not move the time backwards
	require.NoError(t, st.AddCoreNode(addr("1.2.3.4", 22556), 1600000000, 9))

	size, isNew, err := st.CoreStats()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	assert.Equal(t, 2, isNew)

	list, err := st.NodeList()
	require.NoError(t, err)
	require.Len(t, list.Core, 2)
	assert.Equal(t, int64(1700000100), list.Core[0].Time)
	assert.Equal(t, int64(1700000000), list.Core[1].Time)
	assert.Equal(t, uint64(9), list.Core[1].Services)
}

func TestNodeListEmpty(t *testing.T) {
	st := newTestStore(t).WithCtx(context.Background())
	list, err := st.NodeList()
	require.NoError(t, err)
	assert.NotNil(t, list.Core)
	assert.Empty(t, list.Core)
}

func TestChooseCoreNode(t *testing.T) {
	st := newTestStore(t).WithCtx(context.Background())

	_, err := st.ChooseCoreNode()
	assert.ErrorIs(t, err, spec.ErrNotFound)

	want := addr("1.2.3.4", 22556)
	require.NoError(t, st.AddCoreNode(want, 1700000000, 1))
	got, err := st.ChooseCoreNode()
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())

	// no longer new, but still known
	_, isNew, err := st.CoreStats()
	require.NoError(t, err)
	assert.Zero(t, isNew)
	got, err = st.ChooseCoreNode()
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())
}

func TestTrimNodes(t *testing.T) {
	s := newTestStore(t)
	st := s.WithCtx(context.Background())
	require.NoError(t, st.AddCoreNode(addr("1.2.3.4", 22556), 1700000000, 1))
	require.NoError(t, st.AddCoreNode(addr("5.6.7.8", 22556), 1700000000, 1))

	advanced, rem, err := st.TrimNodes()
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Zero(t, rem)

	// pretend one node was last refreshed long ago, and a day has passed
	_, err = s.db.Exec("UPDATE core SET dayc=0 WHERE address=?", addr("1.2.3.4", 22556).ToBytes())
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE config SET last=last-1")
	require.NoError(t, err)

	advanced, rem, err = st.TrimNodes()
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, int64(1), rem)
	size, _, err := st.CoreStats()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestReopenKeepsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := NewSQLiteStore(path, context.Background())
	require.NoError(t, err)
	require.NoError(t, s.WithCtx(context.Background()).AddCoreNode(addr("1.2.3.4", 1), 1, 1))
	s.Close()

	s, err = NewSQLiteStore(path, context.Background())
	require.NoError(t, err)
	defer s.Close()
	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM config").Scan(&rows))
	assert.Equal(t, 1, rows)
	size, _, err := s.WithCtx(context.Background()).CoreStats()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestNodeListWithDatetimeColumn(t *testing.T) {
	// databases created by earlier builds declared core.time as DATETIME
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE core (
		address BLOB NOT NULL PRIMARY KEY,
		time DATETIME NOT NULL,
		services INTEGER NOT NULL,
		isnew BOOLEAN NOT NULL,
		dayc INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := NewSQLiteStore(path, context.Background())
	require.NoError(t, err)
	defer s.Close()
	st := s.WithCtx(context.Background())
	require.NoError(t, st.AddCoreNode(addr("1.2.3.4", 22556), 1700000000, 1))

	list, err := st.NodeList()
	require.NoError(t, err)
	require.Len(t, list.Core, 1)
	assert.Equal(t, int64(1700000000), list.Core[0].Time)
}
