package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valtyr/pcb-jlcpcb/pkg/bom"
)

var (
	bomQuantity   int
	bomIncludeDNP bool
	bomFormat     string
	bomRefresh    bool
	bomOutput     string
)

var bomCmd = &cobra.Command{
	Use:   "bom",
	Short: "BOM availability checks and assembly export",
	Long:  `Check bill-of-materials availability against the catalog and export assembly CSVs.`,
}

var bomCheckCmd = &cobra.Command{
	Use:   "check <bom-file>",
	Short: "Check part availability for a BOM",
	Long: `Check every BOM line against the catalog: stock against the required
quantity, plus unit and extended cost. Accepts .json, .csv, .xlsx and
board-source .zen files.

Examples:
  pcb-jlcpcb bom check bom.csv --quantity 50
  pcb-jlcpcb bom check board.zen --include-dnp --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBomCheck,
}

var bomExportCmd = &cobra.Command{
	Use:   "export <bom-file>",
	Short: "Export a BOM as the supplier's assembly CSV",
	Long: `Export a BOM in the assembly CSV format (Comment, Designator, Footprint,
LCSC Part #). Lines that resolve against the catalog get the catalog
description as comment; unresolved lines keep their part column empty.

Examples:
  pcb-jlcpcb bom export board.zen --output jlcpcb-bom.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBomExport,
}

func init() {
	rootCmd.AddCommand(bomCmd)
	bomCmd.AddCommand(bomCheckCmd)
	bomCmd.AddCommand(bomExportCmd)

	for _, c := range []*cobra.Command{bomCheckCmd, bomExportCmd} {
		c.Flags().IntVarP(&bomQuantity, "quantity", "q", 1, "board quantity multiplier")
		c.Flags().BoolVar(&bomIncludeDNP, "include-dnp", false, "keep do-not-populate lines")
		c.Flags().BoolVar(&bomRefresh, "refresh", false, "bypass cached lookups")
	}
	bomCheckCmd.Flags().StringVar(&bomFormat, "format", "human", "output format (human, json)")
	bomExportCmd.Flags().StringVarP(&bomOutput, "output", "o", "", "output CSV path (default stdout)")
}

func runBomCheck(cmd *cobra.Command, args []string) error {
	if err := validateFormat(bomFormat); err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	doc, err := bom.ParseFile(args[0])
	if err != nil {
		return err
	}
	reportLineErrors(doc)
	if len(doc.Lines) == 0 {
		return fmt.Errorf("no BOM lines in %s", args[0])
	}

	results, err := app.checker(bomRefresh).Check(cmd.Context(), doc, bomQuantity, bomIncludeDNP)
	if err != nil {
		return err
	}

	if bomFormat == "json" {
		return printJSON(struct {
			Results []bom.Result    `json:"results"`
			Errors  []bom.LineError `json:"errors,omitempty"`
		}{results, doc.Errors})
	}
	printCheckTable(results)
	return nil
}

func printCheckTable(results []bom.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tDESIGNATORS\tLCSC\tSTOCK\tREQUIRED\tCOST")
	counts := make(map[bom.Status]int)
	for _, res := range results {
		counts[res.Status]++
		lcsc, stock, cost := "—", "—", "—"
		if res.Part != nil {
			lcsc = res.Part.LCSC
			stock = formatStock(res.Part.Stock)
			if !res.ExtendedCost.IsZero() {
				cost = "$" + res.ExtendedCost.StringFixed(2)
			}
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%d\t%s\n",
			statusGlyph(res.Status), res.Status, designatorRange(res.Line.Designators),
			lcsc, stock, res.Required, cost)
	}
	w.Flush()

	fmt.Printf("\nSummary: %d available, %d insufficient-stock, %d not-found, %d ambiguous, %d errors\n",
		counts[bom.StatusAvailable], counts[bom.StatusInsufficient],
		counts[bom.StatusNotFound], counts[bom.StatusAmbiguous], counts[bom.StatusError])
}

func runBomExport(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	doc, err := bom.ParseFile(args[0])
	if err != nil {
		return err
	}
	reportLineErrors(doc)
	if len(doc.Lines) == 0 {
		return fmt.Errorf("no BOM lines in %s", args[0])
	}

	results, err := app.checker(bomRefresh).Check(cmd.Context(), doc, bomQuantity, bomIncludeDNP)
	if err != nil {
		return err
	}

	csv := bom.Export(results)
	if bomOutput == "" {
		fmt.Print(csv)
		return nil
	}
	if err := os.WriteFile(bomOutput, []byte(csv), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", bomOutput, err)
	}
	fmt.Printf("✓ Exported %d lines to %s\n", len(results), bomOutput)
	return nil
}

func reportLineErrors(doc *bom.Document) {
	for _, le := range doc.Errors {
		fmt.Fprintf(os.Stderr, "! %v\n", le)
	}
}

func statusGlyph(s bom.Status) string {
	switch s {
	case bom.StatusAvailable:
		return "✓"
	case bom.StatusInsufficient:
		return "!"
	case bom.StatusAmbiguous:
		return "?"
	default:
		return "✗"
	}
}

func designatorRange(designators []string) string {
	if len(designators) > 3 {
		return fmt.Sprintf("%s-%s", designators[0], designators[len(designators)-1])
	}
	if len(designators) == 0 {
		return "—"
	}
	out := designators[0]
	for _, d := range designators[1:] {
		out += "," + d
	}
	return out
}
