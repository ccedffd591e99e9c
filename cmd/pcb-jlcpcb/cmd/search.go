package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
)

var (
	searchBasic     bool
	searchPreferred bool
	searchLimit     int
	searchPage      int
	searchFormat    string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the parts catalog",
	Long: `Search the JLCPCB/LCSC catalog by free text.

Examples:
  pcb-jlcpcb search "100nF 0402"
  pcb-jlcpcb search "STM32F103" --basic --limit 10
  pcb-jlcpcb search LM358 --basic --preferred --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchBasic, "basic", false, "only basic (low assembly fee) parts")
	searchCmd.Flags().BoolVar(&searchPreferred, "preferred", false, "include preferred parts (requires --basic)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 25, "results per page")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page (1-based)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "output format (human, json)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPreferred && !searchBasic {
		return fmt.Errorf("--preferred requires --basic")
	}
	if err := validateFormat(searchFormat); err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	page, err := app.catalogClient().Search(cmd.Context(), args[0], catalog.Filters{
		BasicOnly:        searchBasic,
		IncludePreferred: searchPreferred,
		Page:             searchPage,
		Limit:            searchLimit,
	})
	if err != nil {
		return err
	}

	if searchFormat == "json" {
		return printJSON(struct {
			Total int64          `json:"total"`
			Parts []catalog.Part `json:"parts"`
		}{page.Total, page.Parts})
	}

	if len(page.Parts) == 0 {
		fmt.Println("No parts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LCSC\tMPN\tPACKAGE\tSTOCK\tTIER\tDESCRIPTION")
	for _, p := range page.Parts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.LCSC, p.MPN, p.Package, formatStock(p.Stock), tierLabel(&p), clip(p.Description, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	shown := int64(len(page.Parts)) + int64(searchPage-1)*int64(searchLimit)
	if page.Total > shown {
		fmt.Printf("\nShowing %d of %d results (use --page %d for more)\n", shown, page.Total, searchPage+1)
	}
	return nil
}

func tierLabel(p *catalog.Part) string {
	switch {
	case p.Preferred:
		return "Preferred"
	case p.Basic:
		return "Basic"
	default:
		return "Extended"
	}
}

func formatStock(stock int64) string {
	switch {
	case stock >= 1_000_000:
		return fmt.Sprintf("%dM+", stock/1_000_000)
	case stock >= 1_000:
		return fmt.Sprintf("%dK", stock/1_000)
	default:
		return fmt.Sprintf("%d", stock)
	}
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func validateFormat(format string) error {
	switch format {
	case "human", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q (human, json)", format)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
