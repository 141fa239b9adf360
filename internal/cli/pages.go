package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// PageSummary is one line of the pages command.
type PageSummary struct {
	ID      string `json:"id"`
	Commits int    `json:"commits"`
}

// PagesResult lists the journaled pages.
type PagesResult struct {
	Pages []PageSummary `json:"pages"`
}

func (r PagesResult) String() string {
	if len(r.Pages) == 0 {
		return "(no pages)"
	}
	lines := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		lines[i] = fmt.Sprintf("%s\t%d commits", p.ID, p.Commits)
	}
	return strings.Join(lines, "\n")
}

// NewPagesCommand creates the pages command.
func NewPagesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "pages",
		Short:         "List pages with their commit counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPages(opts, cmd)
		},
	}
}

func runPages(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ids := s.cloud.PageIDs()
	result := PagesResult{Pages: make([]PageSummary, len(ids))}
	for i, id := range ids {
		result.Pages[i] = PageSummary{ID: string(id), Commits: s.cloud.Page(id).Len()}
	}
	return opts.formatter(cmd).Success(result)
}
