package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/ir"
)

// ChildrenOptions holds flags for the children command.
type ChildrenOptions struct {
	*RootOptions
	Page string
}

// ChildrenResult lists the commits whose diff is based on a commit.
type ChildrenResult struct {
	Page     string   `json:"page"`
	Commit   string   `json:"commit"`
	Children []string `json:"children"`
}

func (r ChildrenResult) String() string {
	if len(r.Children) == 0 {
		return "(no children)"
	}
	return strings.Join(r.Children, "\n")
}

// NewChildrenCommand creates the children command.
func NewChildrenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChildrenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "children <commit>",
		Short: "List commits whose diff is based on a commit",
		Long: `List, in upload order, the commits of a page whose diff is based on the
given commit. Reads the journal directly.

Example:
  pagecloud children --page notes C3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChildren(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Page, "page", "", "page id (required)")
	_ = cmd.MarkFlagRequired("page")

	return cmd
}

func runChildren(opts *ChildrenOptions, commit string, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	pageID := ir.NormalizePageID(opts.Page)
	ids, err := s.store.Children(cmd.Context(), pageID, ir.CommitID(commit))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read children", err)
	}

	result := ChildrenResult{Page: string(pageID), Commit: commit, Children: make([]string, len(ids))}
	for i, id := range ids {
		result.Children[i] = string(id)
	}
	return opts.formatter(cmd).Success(result)
}
