package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Set      string // optional - filter to one set name
	Session  string // optional - filter to one owner session
	Target   int64  // optional - filter to one target handle
}

// InspectProperty is one stored member of a set.
type InspectProperty struct {
	Handle   int64  `json:"handle"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Quantity bool   `json:"quantity,omitempty"`
	// Origin is the set that first emitted a shared property.
	Origin string `json:"origin,omitempty"`
}

// InspectSet is one stored set with its members.
type InspectSet struct {
	Handle      int64             `json:"handle"`
	GlobalID    string            `json:"global_id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Description string            `json:"description,omitempty"`
	Session     string            `json:"session,omitempty"`
	Targets     []int64           `json:"targets"`
	Properties  []InspectProperty `json:"properties"`
}

// InspectResult holds the inspect output.
type InspectResult struct {
	Database string       `json:"database"`
	Counts   store.Counts `json:"counts"`
	Sets     []InspectSet `json:"sets"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the sets stored in a database",
		Long: `Read back the property and quantity sets written by export.

Each set is listed with its GlobalId, the handles of the entities it is
attached to and its members. Properties shared through the handle cache
show the set that first emitted them.

Examples:
  ifcpset inspect --db ./psets.db
  ifcpset inspect --db ./psets.db --set Pset_WallCommon
  ifcpset inspect --db ./psets.db --target 12 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Set, "set", "", "filter to a set name")
	cmd.Flags().StringVar(&opts.Session, "session", "", "filter to an owner session")
	cmd.Flags().Int64Var(&opts.Target, "target", 0, "filter to sets attached to this entity handle")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.CommandError(ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	result, err := inspectStore(ctx, st, opts)
	if err != nil {
		return formatter.CommandError(ErrCodeStore, "failed to read database", err)
	}
	result.Database = opts.Database

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Sets) == 0 {
			fmt.Fprintln(w, "No sets found")
			return
		}
		for _, s := range result.Sets {
			fmt.Fprintf(w, "#%d %s %s -> %v\n", s.Handle, s.Name, s.GlobalID, s.Targets)
			if s.Description != "" {
				fmt.Fprintf(w, "    description: %s\n", s.Description)
			}
			for _, p := range s.Properties {
				shared := ""
				if p.Origin != "" {
					shared = " (from " + p.Origin + ")"
				}
				fmt.Fprintf(w, "    #%d %s = %s [%s]%s\n", p.Handle, p.Name, p.Value, p.Kind, shared)
			}
		}
		fmt.Fprintf(w, "\n%d set(s) shown; store holds %d sets, %d properties\n",
			len(result.Sets), result.Counts.Sets, result.Counts.Properties)
	})
}

func inspectStore(ctx context.Context, st *store.Store, opts *InspectOptions) (InspectResult, error) {
	counts, err := st.Counts(ctx)
	if err != nil {
		return InspectResult{}, err
	}
	sets, err := st.ListSets(ctx)
	if err != nil {
		return InspectResult{}, err
	}

	result := InspectResult{Counts: counts, Sets: []InspectSet{}}
	for _, s := range sets {
		if opts.Set != "" && s.Name != opts.Set {
			continue
		}
		if opts.Session != "" && s.Owner.Session != opts.Session {
			continue
		}
		if opts.Target != 0 && !slices.Contains(s.Targets, emit.Handle(opts.Target)) {
			continue
		}

		props, err := st.SetProperties(ctx, s.Handle)
		if err != nil {
			return InspectResult{}, err
		}
		is := InspectSet{
			Handle:      int64(s.Handle),
			GlobalID:    s.GlobalID,
			Name:        s.Name,
			Kind:        s.Kind.String(),
			Description: s.Description,
			Session:     s.Owner.Session,
			Targets:     make([]int64, len(s.Targets)),
			Properties:  make([]InspectProperty, 0, len(props)),
		}
		for i, t := range s.Targets {
			is.Targets[i] = int64(t)
		}
		for _, p := range props {
			ip := InspectProperty{
				Handle:   int64(p.Handle),
				Name:     p.Name,
				Kind:     p.Kind.String(),
				Value:    ir.Format(p.Value),
				Quantity: p.Quantity,
			}
			if p.SetName != s.Name {
				ip.Origin = p.SetName
			}
			is.Properties = append(is.Properties, ip)
		}
		result.Sets = append(result.Sets, is)
	}
	return result, nil
}
