package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valtyr/pcb-jlcpcb/pkg/catalog"
	"github.com/valtyr/pcb-jlcpcb/pkg/generator"
	"github.com/valtyr/pcb-jlcpcb/pkg/pins"
)

var (
	generateOutput  string
	generateName    string
	generateRefresh bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <lcsc-id>...",
	Short: "Generate component modules from catalog parts",
	Long: `Generate board-source component modules, symbols and footprints for
supplier part numbers. Two-pin passives use the stdlib generic modules;
everything else gets a full pin mapping from the supplier's symbol data.

Examples:
  pcb-jlcpcb generate C307331
  pcb-jlcpcb generate C307331 C25744 --output components
  pcb-jlcpcb generate C307331 --name AudioAmp --refresh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "components", "output root directory")
	generateCmd.Flags().StringVar(&generateName, "name", "", "component name override (single part only)")
	generateCmd.Flags().BoolVar(&generateRefresh, "refresh", false, "bypass cached lookups")
}

// generated is the outcome for one requested part.
type generated struct {
	id       string
	artifact *generator.Artifact
	err      error
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateName != "" && len(args) > 1 {
		return fmt.Errorf("--name applies to a single part, got %d", len(args))
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	resolver := app.resolver(generateRefresh)
	engine := app.pinEngine(generateRefresh)

	results := buildAll(cmd.Context(), resolver, engine, args, generateName, app.cfg.FetchConcurrency)
	if err := cmd.Context().Err(); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.id, res.err)
			continue
		}
		if err := writeArtifact(res.artifact); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.id, err)
		}
	}

	if len(args) > 1 {
		fmt.Printf("\nGenerated %d components, %d failed\n", len(args)-failed, failed)
	}
	if failed == len(args) {
		return fmt.Errorf("no components generated")
	}
	return nil
}

// buildAll resolves and renders every requested part through a bounded
// pool. Failures stay in the failed part's slot; sibling parts are
// unaffected.
func buildAll(ctx context.Context, resolver *catalog.Resolver, engine *pins.Engine, ids []string, name string, limit int) []generated {
	results := make([]generated, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, arg := range ids {
		i, arg := i, arg
		g.Go(func() error {
			id := catalog.NormalizeID(arg)
			artifact, err := buildArtifact(gctx, resolver, engine, id, name)
			results[i] = generated{id: id, artifact: artifact, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// buildArtifact resolves the part, extracts pins when needed, and renders
// the artifact. Per-part failures stay local to the part.
func buildArtifact(ctx context.Context, resolver *catalog.Resolver, engine *pins.Engine, id, name string) (*generator.Artifact, error) {
	part, err := resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	// Passives render from attributes alone; enrich sparse records.
	if part.GenericPassive() && part.Attributes.Empty() {
		if err := resolver.Enrich(ctx, part); err != nil {
			return nil, err
		}
	}

	var mapping *pins.Mapping
	if !part.GenericPassive() {
		mapping, err = engine.Extract(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return generator.Generate(part, mapping, name)
}

// writeArtifact persists all artifact files under the output root.
func writeArtifact(artifact *generator.Artifact) error {
	dir := filepath.Join(generateOutput, artifact.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	for _, f := range artifact.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("✓ Created %s\n", path)
	}

	// Board tooling expects a manifest next to the module.
	manifest := filepath.Join(dir, "pcb.toml")
	if _, err := os.Stat(manifest); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(manifest, nil, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", manifest, err)
		}
	}
	return nil
}
