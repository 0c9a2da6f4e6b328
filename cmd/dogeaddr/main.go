package main

import (
	"fmt"
	"os"
	"time"

	"code.dogecoin.org/dogeaddr/internal/config"
	"code.dogecoin.org/dogeaddr/internal/logging"
	"code.dogecoin.org/dogeaddr/pkg/dogeaddr"
	"code.dogecoin.org/governor"
	"github.com/spf13/cobra"
)

var (
	configFile string
	nodeFlag   string
	dbFlag     string
	webFlag    string
	logLevel   string
	remotes    int
)

var rootCmd = &cobra.Command{
	Use:   "dogeaddr",
	Short: "Collect Dogecoin core node addresses",
	Long: "dogeaddr connects to Dogecoin core nodes, requests their known peer addresses\n" +
		"and keeps the recently seen ones in a SQLite database served over HTTP.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		gov := governor.New().CatchSignals().Restart(1 * time.Second)
		db, err := dogeaddr.StartDogeAddrService(dogeaddr.DogeAddrConfig{
			Config:   cfg,
			Log:      log,
			Governor: gov,
		})
		if err != nil {
			return err
		}

		// run services until interrupted.
		gov.WaitForShutdown()
		log.Infof("closing the database...")
		db.Close()
		log.Infof("finished.")
		return nil
	},
}

// loadConfig reads the config file, if any, then applies flags
// that were set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return config.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("node") {
		cfg.Node = nodeFlag
	}
	if flags.Changed("db") {
		cfg.DBFile = dbFlag
	}
	if flags.Changed("web") {
		cfg.WebBind = webFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("remotes") {
		cfg.Remotes = remotes
	}
	return cfg, cfg.Validate()
}

func init() {
	def := config.Default()
	rootCmd.Flags().StringVar(&configFile, "config", "", "TOML config file")
	rootCmd.Flags().StringVar(&nodeFlag, "node", def.Node, "local core node ip or ip:port")
	rootCmd.Flags().StringVar(&dbFlag, "db", def.DBFile, "SQLite database file")
	rootCmd.Flags().StringVar(&webFlag, "web", def.WebBind, "web API bind host:port (empty to disable)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", def.LogLevel, "log level: debug, info, warn, error")
	rootCmd.Flags().IntVar(&remotes, "remotes", def.Remotes, "number of remote node collectors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dogeaddr:", err)
		os.Exit(1)
	}
}
