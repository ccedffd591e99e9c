package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valtyr/pcb-jlcpcb/pkg/bom"
	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/config"
	"github.com/valtyr/pcb-jlcpcb/pkg/easyeda"
	"github.com/valtyr/pcb-jlcpcb/pkg/logging"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pcb-jlcpcb",
	Short: "JLCPCB parts catalog and component generation",
	Long: `pcb-jlcpcb works with the JLCPCB/LCSC parts catalog:
  - Search the catalog for parts
  - Generate board-source component modules from supplier symbol data
  - Check BOM availability and export assembly CSVs

Examples:
  pcb-jlcpcb search "100nF 0402" --basic
  pcb-jlcpcb generate C307331
  pcb-jlcpcb bom check board.zen --quantity 50
  pcb-jlcpcb bom export bom.csv --output jlcpcb.csv`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app bundles the configured collaborators every command needs.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *cache.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:   cfg,
		log:   log,
		store: cache.New(cfg.CacheDir, cfg.CacheTTL),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) catalogClient() *catalog.Client {
	return catalog.NewClient(a.cfg.SearchURL, a.cfg.DetailURL, a.cfg.HTTPTimeout, a.log)
}

func (a *app) resolver(refresh bool) *catalog.Resolver {
	return catalog.NewResolver(a.catalogClient(), a.store, refresh, a.log)
}

func (a *app) pinEngine(refresh bool) *pins.Engine {
	client := easyeda.NewClient(a.cfg.SymbolURL, a.cfg.HTTPTimeout, a.log)
	return pins.NewEngine(client, a.store, refresh, a.log)
}

func (a *app) checker(refresh bool) *bom.Checker {
	return bom.NewChecker(a.resolver(refresh), a.cfg.FetchConcurrency, a.log)
}
