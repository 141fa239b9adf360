package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/ir"
)

// ObjectOptions holds flags for the object commands.
type ObjectOptions struct {
	*RootOptions
	Page string
	File string
}

// ObjectResult is a stored object.
type ObjectResult struct {
	Page string `json:"page"`
	ID   string `json:"id"`
	Data string `json:"data,omitempty"`
	Size int    `json:"size"`

	stored bool
}

func (r ObjectResult) String() string {
	if r.stored {
		return fmt.Sprintf("object %s stored on page %s (%d bytes)", r.ID, r.Page, r.Size)
	}
	return r.Data
}

// NewObjectCommand creates the object command and its put and get
// subcommands.
func NewObjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "object",
		Short: "Store and fetch page objects",
	}
	cmd.PersistentFlags().StringVar(&opts.Page, "page", "", "page id (required)")
	_ = cmd.MarkPersistentFlagRequired("page")

	put := &cobra.Command{
		Use:   "put <id> [data]",
		Short: "Store an object, replacing any previous value",
		Long: `Store an object under an id. The data is the second argument or the
contents of --file. With --file and no id, the id is the content address
of the data.

Examples:
  pagecloud object put --page notes logo "<svg/>"
  pagecloud object put --page notes --file logo.svg`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObjectPut(opts, args, cmd)
		},
	}
	put.Flags().StringVar(&opts.File, "file", "", "read object data from a file")

	get := &cobra.Command{
		Use:           "get <id>",
		Short:         "Print an object",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObjectGet(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(put, get)
	return cmd
}

func runObjectPut(opts *ObjectOptions, args []string, cmd *cobra.Command) error {
	var id string
	var data []byte

	switch {
	case opts.File != "" && len(args) == 2:
		return NewExitError(ExitCommandError, "give object data either as an argument or with --file, not both")
	case opts.File != "":
		b, err := os.ReadFile(opts.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read object file", err)
		}
		data = b
		if len(args) == 1 {
			id = args[0]
		} else {
			id = string(ir.ObjectIDFor(data))
		}
	case len(args) == 2:
		id, data = args[0], []byte(args[1])
	default:
		return NewExitError(ExitCommandError, "object put needs <id> <data> or --file")
	}

	f := opts.formatter(cmd)
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	pageID := ir.NormalizePageID(opts.Page)
	if err := s.cloud.Page(pageID).AddObject(cmd.Context(), ir.ObjectID(id), ir.Object{Data: data}); err != nil {
		return f.Fail("failed to store object", err)
	}

	return f.Success(ObjectResult{Page: string(pageID), ID: id, Size: len(data), stored: true})
}

func runObjectGet(opts *ObjectOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	pageID := ir.NormalizePageID(opts.Page)
	obj, err := s.cloud.Page(pageID).GetObject(ir.ObjectID(id))
	if err != nil {
		return f.Fail("object lookup failed", err)
	}

	return f.Success(ObjectResult{Page: string(pageID), ID: id, Data: string(obj.Data), Size: len(obj.Data)})
}
