package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ifcpset/internal/compiler"
	"github.com/roach88/ifcpset/internal/registry"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool             `json:"valid"`
	Version     string           `json:"version,omitempty"`
	Profiles    []string         `json:"profiles,omitempty"`
	Sets        int              `json:"sets"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Lints       []string         `json:"lints,omitempty"`
	Errors      []ValidationItem `json:"errors,omitempty"`
}

// ValidationItem is one table error with its source position.
type ValidationItem struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [table.cue...]",
		Short: "Compile the configured profiles and table files",
		Long: `Compile the built-in profiles selected by the configuration, the
configured user tables and any table files given as arguments, without
exporting anything.

Reports the number of registered sets, the registry fingerprint and any
duplicate registrations. Table errors exit with status 1.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, tables []string, cmd *cobra.Command) error {
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
	regOpts.Tables = append(regOpts.Tables, tables...)
	formatter.VerboseLog("Compiling profiles %v and %d table file(s)", regOpts.Profiles, len(regOpts.Tables))

	reg, err := registry.DefaultCatalog().Build(regOpts)
	if err != nil {
		return outputValidationErrors(formatter, []ValidationItem{validationItem(err)})
	}

	result := ValidationResult{
		Valid:       true,
		Version:     string(reg.Version()),
		Profiles:    reg.Profiles(),
		Sets:        len(reg.Sets()),
		Fingerprint: reg.Fingerprint(),
	}
	for _, l := range reg.Lints() {
		result.Lints = append(result.Lints, l.String())
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d set(s) valid for %s\n", result.Sets, result.Version)
		fmt.Fprintf(w, "  profiles:    %v\n", result.Profiles)
		fmt.Fprintf(w, "  fingerprint: %s\n", result.Fingerprint)
		for _, l := range result.Lints {
			fmt.Fprintf(w, "  warning: %s\n", l)
		}
	})
}

// validationItem extracts the position of a table compile error.
func validationItem(err error) ValidationItem {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		item := ValidationItem{Field: cErr.Field, Message: cErr.Message}
		if cErr.Pos.IsValid() {
			item.File = cErr.Pos.Filename()
			item.Line = cErr.Pos.Line()
		}
		return item
	}
	return ValidationItem{Message: err.Error()}
}

// outputValidationErrors outputs table errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationItem) error {
	result := ValidationResult{Valid: false, Errors: errs}
	msg := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	// Validation failures = exit code 1 (test/validation failure)
	return formatter.Failure(ErrCodeTable, msg, result, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range errs {
			if e.Line > 0 {
				fmt.Fprintf(w, "%s:%d\n", e.File, e.Line)
			}
			if e.Field != "" {
				fmt.Fprintf(w, "  %s: %s\n\n", e.Field, e.Message)
				continue
			}
			fmt.Fprintf(w, "  %s\n\n", e.Message)
		}
	})
}
