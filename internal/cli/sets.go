package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ifcpset/internal/registry"
	"github.com/roach88/ifcpset/internal/schema"
)

// SetsOptions holds flags for the sets command.
type SetsOptions struct {
	*RootOptions
	Entity     string
	ObjectType string
	Profiles   []string
}

// SetSummary is one registered set in the sets listing.
type SetSummary struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	EntityTypes []string       `json:"entity_types"`
	Entries     int            `json:"entries"`
	Description map[string]any `json:"description,omitempty"`
}

// SetsResult holds the sets listing.
type SetsResult struct {
	Version     string       `json:"version"`
	Profiles    []string     `json:"profiles"`
	Fingerprint string       `json:"fingerprint"`
	Sets        []SetSummary `json:"sets"`
}

// NewSetsCommand creates the sets command.
func NewSetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sets",
		Short: "List the registered property and quantity sets",
		Long: `List the sets registered for the configured version and profiles,
in registry order.

Examples:
  ifcpset sets
  ifcpset sets --entity IfcDoor
  ifcpset sets --profile base-quantities --format json -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSets(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entity, "entity", "", "only sets applicable to this entity type")
	cmd.Flags().StringVar(&opts.ObjectType, "object-type", "", "object type used with --entity")
	cmd.Flags().StringSliceVar(&opts.Profiles, "profile", nil, "profiles to list instead of the configured ones")

	return cmd
}

func runSets(opts *SetsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.CommandError(ErrCodeConfig, "invalid config", err)
	}
	logger, err := opts.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	regOpts, err := cfg.RegistryOptions(nil, logger)
	if err != nil {
		return formatter.CommandError(ErrCodeConfig, "invalid config", err)
	}
	if len(opts.Profiles) > 0 {
		regOpts.Profiles = opts.Profiles
	}
	reg, err := registry.DefaultCatalog().Build(regOpts)
	if err != nil {
		return formatter.CommandError(ErrCodeRegistry, "failed to build registry", err)
	}

	sets := reg.Sets()
	if opts.Entity != "" {
		sets = reg.Applicable(opts.Entity, opts.ObjectType)
	}

	result := SetsResult{
		Version:     string(reg.Version()),
		Profiles:    reg.Profiles(),
		Fingerprint: reg.Fingerprint(),
		Sets:        make([]SetSummary, 0, len(sets)),
	}
	for _, s := range sets {
		result.Sets = append(result.Sets, summarizeSet(s, opts.Verbose))
	}

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Sets) == 0 {
			fmt.Fprintln(w, "No sets registered")
			return
		}
		for _, s := range result.Sets {
			fmt.Fprintf(w, "%-40s %-12s %3d  %s\n", s.Name, s.Kind, s.Entries, strings.Join(s.EntityTypes, ", "))
		}
		fmt.Fprintf(w, "\n%d set(s), %s %v\n", len(result.Sets), result.Version, result.Profiles)
	})
}

func summarizeSet(s *schema.SetDescription, verbose bool) SetSummary {
	sum := SetSummary{
		Name:        s.Name(),
		Kind:        s.Kind().String(),
		EntityTypes: s.EntityTypes(),
		Entries:     len(s.Entries()),
	}
	if verbose {
		sum.Description = s.Describe()
	}
	return sum
}
