// Package cli — resolve.go implements the "botstrap resolve" command.
//
// The resolve command checks every declared dependency against the
// package index without installing anything: does the package exist, and
// does any published release satisfy the manifest's specifiers? It is a
// fast pre-flight for setup, and catches typos and impossible pins before
// the slower install run.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantforge/botstrap/internal/config"
	"github.com/quantforge/botstrap/internal/index"
	"github.com/quantforge/botstrap/internal/installer"
	"github.com/quantforge/botstrap/internal/logging"
	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

// resolveFlags holds the flag values for the resolve command.
type resolveFlags struct {
	manifestPath string        // --manifest: explicit pyproject.toml path
	groups       []string      // --group: dependency groups to include (repeatable)
	indexURL     string        // --index-url: package index override
	timeout      time.Duration // --timeout: per-request timeout
	concurrency  int           // --concurrency: simultaneous index requests
}

// NewResolveCommand creates the "resolve" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewResolveCommand() *cobra.Command {
	flags := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Check dependencies against the package index",
		Long: `Look up every declared dependency on the package index and verify that
at least one published release satisfies its version specifiers. Direct
[tool.uv.sources] URLs are probed with an HTTP HEAD request instead.

Nothing is installed. Exit code is 7 when any dependency cannot be
resolved.

Examples:
  botstrap resolve
  botstrap resolve --group dev
  botstrap resolve --index-url https://test.pypi.org --timeout 30s`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Path to pyproject.toml (default: search upward from cwd)")
	cmd.Flags().StringArrayVar(&flags.groups, "group", nil, "Dependency group to include in addition to core (repeatable)")
	cmd.Flags().StringVar(&flags.indexURL, "index-url", "", "Package index base URL (default: from botstrap.json or pypi.org)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 15*time.Second, "Per-request timeout")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", index.DefaultConcurrency, "Maximum simultaneous index requests")

	return cmd
}

// runResolve loads the manifest and resolves every selected requirement
// against the index.
func runResolve(ctx context.Context, flags *resolveFlags) error {
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	manifestPath, err := locateManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	m, verrs, err := manifest.LoadAndCompile(manifestPath)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		printValidationErrors(manifestPath, verrs)
		return model.NewCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("%s has %d validation error(s)", manifestPath, len(verrs)))
	}

	cfg, err := config.Load(installer.ProjectRootOf(manifestPath))
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load botstrap.json", err)
	}

	indexURL := flags.indexURL
	if indexURL == "" {
		indexURL = cfg.IndexURL
	}

	reqs, err := m.Requirements(flags.groups...)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid dependency group selection", err)
	}
	if len(reqs) == 0 {
		fmt.Println("No dependencies to resolve.")
		return nil
	}

	concurrency := flags.concurrency
	if concurrency < 1 {
		concurrency = index.DefaultConcurrency
	}

	log.Debug("resolving dependencies",
		zap.String("index", indexURL),
		zap.Int("requirements", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	// One token per 100ms sustains ten requests a second, with a burst
	// allowance matching the concurrency bound.
	client := index.NewClient(indexURL, flags.timeout)
	limiter := index.NewRateLimiter(concurrency, 100*time.Millisecond)
	resolver := index.NewResolver(client, limiter, concurrency, log)

	results, err := resolver.Resolve(ctx, reqs)
	if err != nil {
		return model.WrapCLIError(model.ExitResolveFailed, "resolution aborted", err)
	}

	printResolveResults(results)

	if !index.AllOK(results) {
		unresolved := 0
		for _, r := range results {
			if !r.OK() {
				unresolved++
			}
		}
		return model.NewCLIError(model.ExitResolveFailed,
			fmt.Sprintf("%d of %d dependencies could not be resolved", unresolved, len(results)))
	}
	return nil
}

// printResolveResults outputs the per-requirement outcomes in text or
// JSON format.
func printResolveResults(results []index.Result) {
	if IsJSONOutput() {
		out := struct {
			Results []index.Result `json:"results"`
			OK      bool           `json:"ok"`
		}{
			Results: results,
			OK:      index.AllOK(results),
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, r := range results {
		switch r.Outcome {
		case index.OutcomeFound:
			if r.Version != "" {
				fmt.Printf("  ok        %-32s %s\n", r.Requirement, r.Version)
			} else {
				fmt.Printf("  ok        %s\n", r.Requirement)
			}
		default:
			fmt.Printf("  %-9s %-32s %s\n", string(r.Outcome), r.Requirement, r.Detail)
		}
	}
}
