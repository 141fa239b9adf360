package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/ir"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Page  string
	Bases []string
}

// ChangeView is a diff entry as printed by the CLI.
type ChangeView struct {
	ID   string `json:"id"`
	Data string `json:"data"`
	Op   string `json:"op"`
}

// DiffResult is a synthesized diff.
type DiffResult struct {
	Page    string       `json:"page"`
	Commit  string       `json:"commit"`
	Base    string       `json:"base"`
	Changes []ChangeView `json:"changes"`
}

func (r DiffResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "diff %s..%s (%d changes)", r.Base, r.Commit, len(r.Changes))
	for _, c := range r.Changes {
		sign := "+"
		if c.Op == ir.Deletion.String() {
			sign = "-"
		}
		fmt.Fprintf(&b, "\n%s %s=%s", sign, c.ID, c.Data)
	}
	return b.String()
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <commit>",
		Short: "Print the smallest diff leading to a commit",
		Long: `Print the smallest diff leading to a commit.

Each --base names a commit the client already has. The diff starts at the
base that needs the fewest changes, or at the commit's origin when that is
strictly smaller. "<empty>" is the empty page.

Examples:
  pagecloud diff --page notes C7
  pagecloud diff --page notes C7 --base C3 --base C5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Page, "page", "", "page id (required)")
	_ = cmd.MarkFlagRequired("page")
	cmd.Flags().StringArrayVar(&opts.Bases, "base", nil, "commit the client has (repeatable)")

	return cmd
}

func runDiff(opts *DiffOptions, commit string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	bases := make([]ir.CommitID, len(opts.Bases))
	for i, b := range opts.Bases {
		bases[i] = ir.CommitID(b)
	}

	pageID := ir.NormalizePageID(opts.Page)
	diff, err := s.cloud.Page(pageID).GetDiff(ir.CommitID(commit), bases)
	if err != nil {
		return f.Fail("diff failed", err)
	}

	ir.SortEntries(diff.Changes)
	result := DiffResult{
		Page:    string(pageID),
		Commit:  commit,
		Base:    diff.BaseState.String(),
		Changes: make([]ChangeView, len(diff.Changes)),
	}
	for i, e := range diff.Changes {
		result.Changes[i] = ChangeView{ID: string(e.EntryID), Data: string(e.Data), Op: e.Operation.String()}
	}

	return f.Success(result)
}
