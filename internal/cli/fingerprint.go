package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/ir"
)

// FingerprintResult reports a fingerprint and, for check, whether it is
// known.
type FingerprintResult struct {
	Fingerprint string `json:"fingerprint"`
	Known       *bool  `json:"known,omitempty"`
}

func (r FingerprintResult) String() string {
	if r.Known == nil {
		return r.Fingerprint
	}
	if *r.Known {
		return fmt.Sprintf("%s: known", r.Fingerprint)
	}
	return fmt.Sprintf("%s: unknown", r.Fingerprint)
}

// NewFingerprintCommand creates the fingerprint command and its new, set
// and check subcommands.
func NewFingerprintCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Manage device fingerprints",
		Long: `Manage the set of device fingerprints.

A device registers a fingerprint once and checks it on every start. When
the check fails, the cloud was erased and the device must drop its local
state.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "new",
		Short:         "Generate and register a fingerprint",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.NewV7()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate fingerprint", err)
			}
			return runFingerprintSet(opts, id.String(), cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "set <fingerprint>",
		Short:         "Register a fingerprint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFingerprintSet(opts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "check <fingerprint>",
		Short:         "Report whether a fingerprint is registered",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFingerprintCheck(opts, args[0], cmd)
		},
	})

	return cmd
}

func runFingerprintSet(opts *RootOptions, fp string, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cloud.DeviceSet().SetFingerprint(cmd.Context(), ir.NormalizeFingerprint(fp)); err != nil {
		return WrapExitError(ExitCommandError, "failed to register fingerprint", err)
	}
	return opts.formatter(cmd).Success(FingerprintResult{Fingerprint: fp})
}

func runFingerprintCheck(opts *RootOptions, fp string, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	known := s.cloud.DeviceSet().CheckFingerprint(ir.NormalizeFingerprint(fp))
	return opts.formatter(cmd).Success(FingerprintResult{Fingerprint: fp, Known: &known})
}
