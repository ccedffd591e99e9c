package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valtyr/pcb-jlcpcb/pkg/cache"
)

var (
	cleanParts bool
	cleanPins  bool
)

var utilCmd = &cobra.Command{
	Use:   "util",
	Short: "Maintenance utilities",
}

var cleanCacheCmd = &cobra.Command{
	Use:   "clean-cache",
	Short: "Remove cached catalog lookups",
	Long: `Remove cached entries. With no flags both namespaces are cleared;
--parts and --pins restrict the sweep.

Examples:
  pcb-jlcpcb util clean-cache
  pcb-jlcpcb util clean-cache --pins`,
	RunE: runCleanCache,
}

func init() {
	rootCmd.AddCommand(utilCmd)
	utilCmd.AddCommand(cleanCacheCmd)

	cleanCacheCmd.Flags().BoolVar(&cleanParts, "parts", false, "clear the part record cache")
	cleanCacheCmd.Flags().BoolVar(&cleanPins, "pins", false, "clear the pin mapping cache")
}

func runCleanCache(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	var removed int
	switch {
	case !cleanParts && !cleanPins:
		removed, err = app.store.ClearAll()
	case cleanParts && cleanPins:
		removed, err = app.store.ClearAll()
	case cleanParts:
		removed, err = app.store.Clear(cache.NamespaceParts)
	default:
		removed, err = app.store.Clear(cache.NamespacePins)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Removed %d cache entries from %s\n", removed, app.store.Dir())
	return nil
}
