package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
)

var (
	commentsFinder   string
	commentsLimit    int
	commentsJSON     bool
	commentsMarkdown bool
)

var commentsCmd = &cobra.Command{
	Use:   "comments [post-id]",
	Short: "List the comments on a post",
	Long: `Lists comments from every registered source that has the post, or
from a single source when --finder is given. Sources without a
comment API are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComments,
}

func init() {
	commentsCmd.Flags().StringVarP(&commentsFinder, "finder", "f", "", "query a single source by name")
	commentsCmd.Flags().IntVarP(&commentsLimit, "limit", "n", 20, "maximum number of comments per source")
	commentsCmd.Flags().BoolVar(&commentsJSON, "json", false, "output comments as JSON")
	commentsCmd.Flags().BoolVar(&commentsMarkdown, "markdown", false, "render comment bodies as Markdown")
	rootCmd.AddCommand(commentsCmd)
}

func runComments(cmd *cobra.Command, args []string) error {
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}

	var postID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid post ID %q: %w", args[0], err)
		}
		postID = id
	}

	comments, err := aggregator.SearchComments(cmd.Context(), driving.CommentQueryOptions{
		Finder: commentsFinder,
		PostID: postID,
		Limit:  commentsLimit,
	})
	if err != nil {
		return fmt.Errorf("comment search failed: %w", err)
	}

	if commentsJSON {
		data, err := json.MarshalIndent(comments, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal comments: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(comments) == 0 {
		cmd.Println("No comments found.")
		return nil
	}

	for _, c := range comments {
		creator := c.Creator
		if creator == "" {
			creator = fmt.Sprintf("user %d", c.CreatorID)
		}
		cmd.Printf("[%s] %s (%s)\n", c.Source, creator, formatEpoch(c.CreatedAt))

		body := c.Body
		if commentsMarkdown {
			rendered, err := c.BodyMarkdown()
			if err != nil {
				return fmt.Errorf("render comment body: %w", err)
			}
			body = rendered
		}
		cmd.Printf("  %s\n\n", body)
	}
	return nil
}

func formatEpoch(sec int64) string {
	if sec == 0 {
		return "unknown"
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04")
}
