package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"code.dogecoin.org/dogeaddr/internal/metrics"
	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/dogeaddr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAPI(t *testing.T) (*WebAPI, spec.StoreCtx) {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "web.db"), context.Background())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	a := New("localhost:0", db, metrics.New(), zap.NewNop().Sugar()).(*WebAPI)
	a.store = db.WithCtx(context.Background())
	return a, a.store
}

func TestGetNodes(t *testing.T) {
	a, st := newTestAPI(t)
	require.NoError(t, st.AddCoreNode(spec.Address{Host: net.ParseIP("1.2.3.4"), Port: 22556}, 1700000000, 1))

	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res spec.NodeListRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Core, 1)
	assert.Equal(t, int64(1700000000), res.Core[0].Time)
	assert.Equal(t, uint64(1), res.Core[0].Services)
}

func TestGetNodesEmpty(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"core":[]}`, rec.Body.String())
}

func TestNodesMethods(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/nodes", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/nodes", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dogeaddr_known_nodes")
}
