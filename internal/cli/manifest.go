// Package cli — manifest.go implements the "botstrap manifest" command
// group: "manifest validate" checks pyproject.toml against the schema and
// requirement grammar, and "manifest list" prints the declared
// dependencies. Both are read-only.
package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quantforge/botstrap/internal/manifest"
	"github.com/quantforge/botstrap/internal/model"
)

// manifestFlags holds the flag values shared by the manifest subcommands.
type manifestFlags struct {
	manifestPath string // --manifest: explicit pyproject.toml path
	output       string // --output: text, json, or yaml (list only)
}

// NewManifestCommand creates the "manifest" command group with its
// validate and list subcommands.
func NewManifestCommand() *cobra.Command {
	flags := &manifestFlags{}

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect and validate pyproject.toml",
	}

	cmd.PersistentFlags().StringVar(&flags.manifestPath, "manifest", "", "Path to pyproject.toml (default: search upward from cwd)")

	cmd.AddCommand(newManifestValidateCommand(flags))
	cmd.AddCommand(newManifestListCommand(flags))

	return cmd
}

// newManifestValidateCommand creates the "manifest validate" subcommand.
func newManifestValidateCommand(flags *manifestFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the dependency manifest",
		Long: `Check pyproject.toml for schema and requirement problems: missing or
malformed project name, unparseable version specifiers, duplicate
dependencies, environment markers, and undeclared or insecure
[tool.uv.sources] entries.

All problems are reported in one run. Exit code is 3 when any are found.

Examples:
  botstrap manifest validate
  botstrap manifest validate --manifest ./bot/pyproject.toml --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifestValidate(flags)
		},
	}
}

// newManifestListCommand creates the "manifest list" subcommand.
func newManifestListCommand(flags *manifestFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the declared dependencies",
		Long: `Print the project's dependencies: the core [project].dependencies plus
every dependency group, with direct [tool.uv.sources] URLs applied.

Examples:
  botstrap manifest list
  botstrap manifest list --output yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifestList(flags)
		},
	}

	cmd.Flags().StringVar(&flags.output, "output", "text", "Output format: text, json, yaml")

	return cmd
}

// runManifestValidate loads the manifest and reports every validation
// error found.
func runManifestValidate(flags *manifestFlags) error {
	path, err := locateManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	m, verrs, err := manifest.LoadAndCompile(path)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		out := struct {
			Path   string                     `json:"path"`
			Valid  bool                       `json:"valid"`
			Ruff   bool                       `json:"ruff"`
			Mypy   bool                       `json:"mypy"`
			Errors []manifest.ValidationError `json:"errors,omitempty"`
		}{
			Path:   path,
			Valid:  len(verrs) == 0,
			Ruff:   m.HasRuff,
			Mypy:   m.HasMypy,
			Errors: verrs,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else if len(verrs) == 0 {
		fmt.Printf("%s is valid (%s, %d core dependencies, %d groups%s)\n",
			path, m.Name, len(m.Core), len(m.Groups), toolingSummary(m))
	} else {
		printValidationErrors(path, verrs)
	}

	if len(verrs) > 0 {
		return model.NewCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("%s has %d validation error(s)", path, len(verrs)))
	}
	return nil
}

// toolingSummary notes configured lint and type-check tooling for the
// validate success line.
func toolingSummary(m *manifest.Manifest) string {
	switch {
	case m.HasRuff && m.HasMypy:
		return ", ruff+mypy configured"
	case m.HasRuff:
		return ", ruff configured"
	case m.HasMypy:
		return ", mypy configured"
	default:
		return ""
	}
}

// manifestListing is the structured output of "manifest list", shared by
// the JSON and YAML encoders.
type manifestListing struct {
	Name           string                         `json:"name" yaml:"name"`
	Version        string                         `json:"version,omitempty" yaml:"version,omitempty"`
	RequiresPython string                         `json:"requiresPython,omitempty" yaml:"requiresPython,omitempty"`
	Core           []listedRequirement            `json:"core" yaml:"core"`
	Groups         map[string][]listedRequirement `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// listedRequirement is one dependency row in the listing.
type listedRequirement struct {
	Name      string `json:"name" yaml:"name"`
	Specifier string `json:"specifier,omitempty" yaml:"specifier,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
}

// runManifestList prints the compiled dependency listing.
func runManifestList(flags *manifestFlags) error {
	path, err := locateManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	m, verrs, err := manifest.LoadAndCompile(path)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		printValidationErrors(path, verrs)
		return model.NewCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("%s has %d validation error(s)", path, len(verrs)))
	}

	listing := buildListing(m)

	// The global --json flag forces JSON regardless of --output, so that
	// scripts relying on the persistent flag behave consistently across
	// subcommands.
	format := flags.output
	if IsJSONOutput() {
		format = "json"
	}

	switch format {
	case "json":
		data, _ := json.MarshalIndent(listing, "", "  ")
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(listing)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode listing", err)
		}
		fmt.Print(string(data))
	case "text":
		printListingText(listing)
	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q: valid values are text, json, yaml", format))
	}
	return nil
}

// buildListing converts a compiled manifest into the listing structure,
// with direct source URLs applied.
func buildListing(m *manifest.Manifest) manifestListing {
	listing := manifestListing{
		Name:           m.Name,
		Version:        m.Version,
		RequiresPython: m.RequiresPython.String(),
		Core:           make([]listedRequirement, 0, len(m.Core)),
	}

	coreReqs, _ := m.Requirements()
	for _, r := range coreReqs {
		listing.Core = append(listing.Core, listedRequirement{
			Name:      r.Normalized,
			Specifier: r.Specifiers.String(),
			URL:       r.URL,
		})
	}

	if len(m.Groups) > 0 {
		listing.Groups = make(map[string][]listedRequirement, len(m.Groups))
		for _, g := range m.GroupNames() {
			reqs, _ := m.Requirements(g)
			rows := make([]listedRequirement, 0, len(m.Groups[g]))
			for _, r := range reqs[len(coreReqs):] {
				rows = append(rows, listedRequirement{
					Name:      r.Normalized,
					Specifier: r.Specifiers.String(),
					URL:       r.URL,
				})
			}
			listing.Groups[g] = rows
		}
	}

	return listing
}

// printListingText outputs the dependency listing as human-readable text.
func printListingText(listing manifestListing) {
	fmt.Printf("%s", listing.Name)
	if listing.Version != "" {
		fmt.Printf(" %s", listing.Version)
	}
	if listing.RequiresPython != "" {
		fmt.Printf(" (python %s)", listing.RequiresPython)
	}
	fmt.Println()

	fmt.Println()
	fmt.Println("Core:")
	printRequirementRows(listing.Core)

	for _, group := range sortedGroupNames(listing.Groups) {
		fmt.Println()
		fmt.Printf("Group %s:\n", group)
		printRequirementRows(listing.Groups[group])
	}
}

// printRequirementRows prints one aligned row per requirement.
func printRequirementRows(rows []listedRequirement) {
	for _, row := range rows {
		if row.URL != "" {
			fmt.Printf("  %-24s %s\n", row.Name, row.URL)
			continue
		}
		spec := row.Specifier
		if spec == "" {
			spec = "(any)"
		}
		fmt.Printf("  %-24s %s\n", row.Name, spec)
	}
}

// sortedGroupNames returns the listing's group names in sorted order for
// deterministic output.
func sortedGroupNames(groups map[string][]listedRequirement) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
