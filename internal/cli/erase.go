package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EraseResult reports how many fingerprints an erase dropped.
type EraseResult struct {
	Erased int `json:"erased"`
}

func (r EraseResult) String() string {
	return fmt.Sprintf("erased %d fingerprints", r.Erased)
}

// NewEraseCommand creates the erase command.
func NewEraseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Forget every device fingerprint",
		Long: `Forget every device fingerprint. Devices notice on their next
fingerprint check and reset. Pages are not touched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runErase(opts, cmd)
		},
	}
}

func runErase(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	devices := s.cloud.DeviceSet()
	n := len(devices.Fingerprints())
	if err := devices.Erase(cmd.Context()); err != nil {
		return WrapExitError(ExitCommandError, "failed to erase device set", err)
	}
	return opts.formatter(cmd).Success(EraseResult{Erased: n})
}
