package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type importOptions struct {
	repo     string
	number   int
	reviewID string
}

func (o importOptions) validate() error {
	owner, name, ok := strings.Cut(o.repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("--repo must be owner/name, got %q", o.repo)
	}
	if o.number <= 0 {
		return errors.New("--number must be a positive pull request number")
	}
	return nil
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a review from a GitHub pull request's inline comments",
		Long: `Import fetches the inline review comments of a pull request and stores them
as a new open review. Root comments become review comments numbered per author
in creation order; replies attach to their root comment.`,
		Example: "  reviewmarks import --repo owner/name --number 42 --review pr-42",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return &usageError{err: err}
			}
			if opts.reviewID == "" {
				opts.reviewID = fmt.Sprintf("pr-%d", opts.number)
			}

			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.importer.ImportPullRequest(cmd.Context(), opts.repo, opts.number, opts.reviewID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d comments and %d replies into review %s\n",
				result.Comments, result.Replies, result.Review.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository as owner/name")
	cmd.Flags().IntVar(&opts.number, "number", 0, "pull request number")
	cmd.Flags().StringVar(&opts.reviewID, "review", "", "review ID to create (default pr-<number>)")
	return cmd
}
