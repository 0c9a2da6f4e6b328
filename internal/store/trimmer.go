package store

import (
	"time"

	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/governor"
	"go.uber.org/zap"
)

const TrimInterval = 1 * time.Hour

type StoreTrimmer struct {
	governor.ServiceCtx
	_store spec.Store
	log    *zap.SugaredLogger
}

// NewStoreTrimmer checks the store hourly; nodes expire once per day.
func NewStoreTrimmer(store spec.Store, log *zap.SugaredLogger) governor.Service {
	return &StoreTrimmer{_store: store, log: log}
}

// goroutine
func (s *StoreTrimmer) Run() {
	store := s._store.WithCtx(s.Context) // Service Context is first available here
	for !s.Stopping() {
		advanced, remCore, err := store.TrimNodes()
		if err != nil {
			s.log.Errorf("[%s] TrimNodes: %v", s.ServiceName, err)
		} else if advanced {
			s.log.Infof("[%s] expired %d core nodes", s.ServiceName, remCore)
		}
		if s.Sleep(TrimInterval) {
			return
		}
	}
}
