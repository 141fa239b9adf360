package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/batch"
)

// PushResult reports what a push added.
type PushResult struct {
	Page     string `json:"page"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
	Objects  int    `json:"objects"`
	Token    int    `json:"token"`
}

func (r PushResult) String() string {
	return fmt.Sprintf("page %s: %d commits accepted, %d already known, %d objects stored (token %d)",
		r.Page, r.Accepted, r.Skipped, r.Objects, r.Token)
}

// NewPushCommand creates the push command.
func NewPushCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push <batch-file>",
		Short: "Upload a batch of commits and objects",
		Long: `Upload a batch file to its page.

The batch is a CUE or JSON file (by extension) naming one page, its commits
in upload order and optional objects. Commits already stored are skipped.
If any new commit is rejected, nothing from the batch is stored.

Exit codes:
  0 - Batch stored
  1 - Batch invalid or rejected (E_BATCH, E_NOT_FOUND, E_ARGUMENT)
  2 - Command error

Examples:
  pagecloud push notes.cue
  pagecloud push --db ./cloud.db notes.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(opts, args[0], cmd)
		},
	}
}

func runPush(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	b, err := batch.LoadFile(path)
	if err != nil {
		return f.Fail("failed to load batch", err)
	}
	f.VerboseLog("Loaded %s: page %s, %d commits, %d objects", path, b.Page, len(b.Commits), len(b.Objects))

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.cloud.Page(b.Page)
	accepted, err := p.AddCommits(ctx, b.Commits)
	if err != nil {
		return f.Fail("push rejected", err)
	}

	for _, obj := range b.Objects {
		if err := p.AddObject(ctx, obj.ID, obj.Object); err != nil {
			return f.Fail(fmt.Sprintf("failed to store object %s", obj.ID), err)
		}
	}

	return f.Success(PushResult{
		Page:     string(b.Page),
		Accepted: accepted,
		Skipped:  len(b.Commits) - accepted,
		Objects:  len(b.Objects),
		Token:    p.Len(),
	})
}
