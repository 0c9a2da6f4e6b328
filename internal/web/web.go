package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"code.dogecoin.org/dogeaddr/internal/metrics"
	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/governor"
	"go.uber.org/zap"
)

func New(bind string, store spec.Store, m *metrics.Metrics, log *zap.SugaredLogger) governor.Service {
	mux := http.NewServeMux()
	a := &WebAPI{
		_store: store,
		srv: http.Server{
			Addr:    bind,
			Handler: mux,
		},
		log: log,
	}
	mux.HandleFunc("/nodes", a.getNodes)
	mux.Handle("/metrics", m.Handler())

	return a
}

type WebAPI struct {
	governor.ServiceCtx
	_store spec.Store
	store  spec.StoreCtx
	srv    http.Server
	log    *zap.SugaredLogger
}

// called on any
func (a *WebAPI) Stop() {
	// new goroutine because Shutdown() blocks
	go func() {
		// cannot use ServiceCtx here because it's already cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a.srv.Shutdown(ctx) // blocking call
		cancel()
	}()
}

// goroutine
func (a *WebAPI) Run() {
	a.store = a._store.WithCtx(a.Context) // Service Context is first available here
	a.log.Infof("HTTP server listening on: %v", a.srv.Addr)
	if err := a.srv.ListenAndServe(); err != http.ErrServerClosed { // blocking call
		a.log.Errorf("HTTP server: %v", err)
	}
}

func (a *WebAPI) getNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		list, err := a.store.NodeList()
		if err != nil {
			http.Error(w, fmt.Sprintf("error in query: %s", err.Error()), http.StatusInternalServerError)
			return
		}
		bytes, err := json.Marshal(list)
		if err != nil {
			http.Error(w, fmt.Sprintf("error encoding JSON: %s", err.Error()), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(bytes)))
		w.Header().Set("Allow", "GET, OPTIONS")
		w.Write(bytes)
	} else {
		options(w, r, "GET, OPTIONS")
	}
}

func options(w http.ResponseWriter, r *http.Request, options string) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Allow", options)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", options)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
