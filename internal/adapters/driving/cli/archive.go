package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the local post archive",
	Long: `Posts saved with 'get --archive' land in a local database. These
subcommands inspect and prune it.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list [source]",
	Short: "List archived posts from a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show [source] [post-id]",
	Short: "Show one archived post",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveShow,
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete [source] [post-id]",
	Short: "Delete an archived post",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveDelete,
}

var archiveCommentsCmd = &cobra.Command{
	Use:   "comments [source] [post-id]",
	Short: "Fetch and archive a post's comments",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveComments,
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveDeleteCmd)
	archiveCmd.AddCommand(archiveCommentsCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	if postArchive == nil {
		return errors.New("archive not configured")
	}

	posts, err := postArchive.ListPosts(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	if len(posts) == 0 {
		cmd.Println("Archive is empty for this source.")
		return nil
	}
	for _, p := range posts {
		cmd.Printf("%s  rating=%s  media=%d\n", p.Name, p.Rating, len(p.MediaURLs))
	}
	return nil
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	if postArchive == nil {
		return errors.New("archive not configured")
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post ID %q: %w", args[1], err)
	}

	post, err := postArchive.GetPost(cmd.Context(), args[0], id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("post %d is not archived", id)
		}
		return fmt.Errorf("read archive: %w", err)
	}

	outputPostDetail(cmd, post)

	comments, err := postArchive.ListComments(cmd.Context(), args[0], id)
	if err != nil {
		return fmt.Errorf("read archived comments: %w", err)
	}
	if len(comments) > 0 {
		cmd.Printf("  Comments: %d archived\n", len(comments))
	}
	return nil
}

func runArchiveDelete(cmd *cobra.Command, args []string) error {
	if postArchive == nil {
		return errors.New("archive not configured")
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post ID %q: %w", args[1], err)
	}

	if err := postArchive.DeletePost(cmd.Context(), args[0], id); err != nil {
		return fmt.Errorf("delete from archive: %w", err)
	}
	cmd.Printf("Deleted %s #%d from the archive.\n", args[0], id)
	return nil
}

func runArchiveComments(cmd *cobra.Command, args []string) error {
	if postArchive == nil {
		return errors.New("archive not configured")
	}
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post ID %q: %w", args[1], err)
	}

	ctx := cmd.Context()
	comments, err := aggregator.SearchComments(ctx, driving.CommentQueryOptions{
		Finder: args[0],
		PostID: id,
	})
	if err != nil {
		return fmt.Errorf("comment search failed: %w", err)
	}
	if len(comments) == 0 {
		cmd.Println("No comments to archive.")
		return nil
	}

	if err := postArchive.SaveComments(ctx, comments); err != nil {
		return fmt.Errorf("archive comments: %w", err)
	}
	cmd.Printf("Archived %d comments.\n", len(comments))
	return nil
}
