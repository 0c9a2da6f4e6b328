package dogeaddr

import (
	"context"
	"fmt"

	"code.dogecoin.org/dogeaddr/internal/collector"
	"code.dogecoin.org/dogeaddr/internal/config"
	"code.dogecoin.org/dogeaddr/internal/metrics"
	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/dogeaddr/internal/store"
	"code.dogecoin.org/dogeaddr/internal/web"
	"code.dogecoin.org/governor"
	"go.uber.org/zap"
)

type DogeAddrConfig struct {
	Config   config.Config
	Log      *zap.SugaredLogger
	Governor governor.Governor
}

// StartDogeAddrService opens the store and adds the collector, web and
// trimmer services to the governor. The caller closes the returned
// store after the governor has shut down.
func StartDogeAddrService(s DogeAddrConfig) (spec.Store, error) {
	cfg := s.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// open the database.
	db, err := store.NewSQLiteStore(cfg.DBFile, context.Background())
	if err != nil {
		s.Log.Errorf("Error opening database: %v [%s]", err, cfg.DBFile)
		return nil, err
	}
	m := metrics.New()

	// stay connected to local node if specified.
	// core node addresses are discovered via the local node.
	if cfg.Node != "" {
		addr, err := cfg.NodeAddress()
		if err != nil {
			db.Close()
			return nil, err
		}
		s.Governor.Add("local-node", collector.New(db, addr, 0, true, s.Log, m))
	}

	// start connecting to Core Nodes.
	for n := 0; n < cfg.Remotes; n++ {
		s.Governor.Add(fmt.Sprintf("remote-%d", n), collector.New(db, spec.Address{}, cfg.MaxTime, false, s.Log, m))
	}

	// start the web server.
	if cfg.WebBind != "" {
		s.Governor.Add("web-api", web.New(cfg.WebBind, db, m, s.Log))
	}

	// start the store trimmer
	s.Governor.Add("store", store.NewStoreTrimmer(db, s.Log))

	// run services until interrupted.
	s.Governor.Start()

	return db, nil
}
