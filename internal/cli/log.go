package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pagecloud/internal/ir"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Page string
	From int
}

// CommitView is a commit as printed by the CLI.
type CommitView struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// LogResult is a page of the commit log.
type LogResult struct {
	Page    string       `json:"page"`
	Token   int          `json:"token"`
	Commits []CommitView `json:"commits"`
}

func (r LogResult) String() string {
	var b strings.Builder
	for _, c := range r.Commits {
		fmt.Fprintf(&b, "%s  %s\n", c.ID, c.Data)
	}
	fmt.Fprintf(&b, "token %d", r.Token)
	return b.String()
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List commits uploaded after a token",
		Long: `List the commits of a page in upload order, starting after --from.

The printed token is the position to pass as --from next time. When there
is nothing new the token is unchanged and no commits are listed.

Examples:
  pagecloud log --page notes
  pagecloud log --page notes --from 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Page, "page", "", "page id (required)")
	_ = cmd.MarkFlagRequired("page")
	cmd.Flags().IntVar(&opts.From, "from", 0, "token to read after")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	pageID := ir.NormalizePageID(opts.Page)
	next, commits, _ := s.cloud.Page(pageID).GetCommits(ir.Token(opts.From))

	result := LogResult{
		Page:    string(pageID),
		Token:   int(next),
		Commits: make([]CommitView, len(commits)),
	}
	for i, c := range commits {
		result.Commits[i] = CommitView{ID: string(c.ID), Data: string(c.Data)}
	}

	return opts.formatter(cmd).Success(result)
}
