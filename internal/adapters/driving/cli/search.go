package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
)

var (
	searchFinder string
	searchLimit  int
	searchPage   int
	searchJSON   bool
	searchDedup  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [tags]",
	Short: "Search posts across registered sources",
	Long: `Searches every registered source for posts matching the tag query,
or a single source when --finder is given, and prints the merged
results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFinder, "finder", "f", "", "query a single source by name")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results per source")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 0, "page to start from")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchDedup, "dedup", false, "drop posts whose media hashes repeat")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}

	posts, err := aggregator.SearchPosts(cmd.Context(), args[0], driving.QueryOptions{
		Finder: searchFinder,
		Limit:  searchLimit,
		Page:   searchPage,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchDedup {
		posts = filterDuplicatePosts(cmd.Context(), posts)
	}

	if searchJSON {
		return outputPostsJSON(cmd, posts)
	}
	return outputPostsTable(cmd, posts)
}

func outputPostsJSON(cmd *cobra.Command, posts []*domain.Post) error {
	entries := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, postSummary(p))
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal posts: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func postSummary(p *domain.Post) map[string]any {
	return map[string]any{
		"post_id": p.ID,
		"source":  p.Source,
		"name":    p.Name,
		"rating":  p.Rating,
		"tags":    p.Tags,
		"images":  p.MediaURLs,
		"preview": p.Preview,
	}
}

func outputPostsTable(cmd *cobra.Command, posts []*domain.Post) error {
	if len(posts) == 0 {
		cmd.Println("No posts found.")
		return nil
	}

	cmd.Printf("Found %d posts:\n\n", len(posts))
	for _, p := range posts {
		cmd.Printf("  [%s] %s\n", p.Source, p.Name)
		cmd.Printf("      Rating: %s  Media: %d\n", p.Rating, len(p.MediaURLs))
		if tags := p.TagString(); tags != "" {
			cmd.Printf("      Tags: %s\n", truncate(tags, 100))
		}
		cmd.Println()
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
