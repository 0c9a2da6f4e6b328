package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"code.dogecoin.org/gossip/dnet"
	"github.com/BurntSushi/toml"
)

const DefaultCorePort = 22556

type Config struct {
	Node     string        // local core node "ip:port" (or bare ip); empty to only crawl known nodes
	DBFile   string        // SQLite database path
	WebBind  string        // web API "host:port"; empty disables it
	LogLevel string        // zap level name
	Remotes  int           // number of collectors crawling remote nodes
	MaxTime  time.Duration // per remote node connection time limit
}

func Default() Config {
	return Config{
		Node:     "",
		DBFile:   "dogeaddr.db",
		WebBind:  "localhost:8086",
		LogLevel: "info",
		Remotes:  2,
		MaxTime:  5 * time.Minute,
	}
}

type fileConfig struct {
	Node     string `toml:"node"`
	DBFile   string `toml:"db"`
	WebBind  string `toml:"web"`
	LogLevel string `toml:"log_level"`
	Remotes  int    `toml:"remotes"`
	MaxTime  string `toml:"max_time"`
}

// Load reads a TOML file over the defaults; keys absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("node") {
		cfg.Node = strings.TrimSpace(raw.Node)
	}
	if meta.IsDefined("db") {
		cfg.DBFile = strings.TrimSpace(raw.DBFile)
	}
	if meta.IsDefined("web") {
		cfg.WebBind = strings.TrimSpace(raw.WebBind)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("remotes") {
		cfg.Remotes = raw.Remotes
	}
	if meta.IsDefined("max_time") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MaxTime))
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: parse max_time: %w", path, err)
		}
		cfg.MaxTime = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Node != "" {
		if _, err := c.NodeAddress(); err != nil {
			return err
		}
	}
	if c.DBFile == "" {
		return fmt.Errorf("db: must not be empty")
	}
	if c.WebBind != "" {
		if _, _, err := net.SplitHostPort(c.WebBind); err != nil {
			return fmt.Errorf("web: %w", err)
		}
	}
	if c.Remotes < 0 {
		return fmt.Errorf("remotes: must not be negative: %d", c.Remotes)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("max_time: must not be negative: %v", c.MaxTime)
	}
	if c.Node == "" && c.Remotes == 0 {
		return fmt.Errorf("nothing to do: set node or remotes")
	}
	return nil
}

// NodeAddress parses Node, using the default core port for a bare IP.
func (c Config) NodeAddress() (dnet.Address, error) {
	node := c.Node
	if ip := net.ParseIP(node); ip != nil {
		return dnet.Address{Host: ip, Port: DefaultCorePort}, nil
	}
	addr, err := dnet.ParseAddress(node)
	if err != nil {
		return dnet.Address{}, fmt.Errorf("node: invalid address %q: %w", node, err)
	}
	return addr, nil
}
