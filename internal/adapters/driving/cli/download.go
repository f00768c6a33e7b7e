package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/ports/driving"
	"github.com/custodia-labs/boorufind/internal/core/services"
)

var (
	downloadFinder      string
	downloadLimit       int
	downloadDir         string
	downloadConcurrency int
	downloadRate        int
	downloadDedup       bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [tags]",
	Short: "Search posts and download their media",
	Long: `Searches the registered sources for posts matching the tag query and
downloads every media file into a directory. Downloads run with
bounded parallelism and a request rate cap; the order is shuffled so
the load spreads across sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadFinder, "finder", "f", "", "query a single source by name")
	downloadCmd.Flags().IntVarP(&downloadLimit, "limit", "n", 20, "maximum number of posts per source")
	downloadCmd.Flags().StringVarP(&downloadDir, "out", "o", "downloads", "directory to download into")
	downloadCmd.Flags().IntVar(&downloadConcurrency, "concurrency", services.DefaultMaxConcurrency, "maximum simultaneous downloads")
	downloadCmd.Flags().IntVar(&downloadRate, "rate", services.DefaultMaxRate, "maximum downloads started per second")
	downloadCmd.Flags().BoolVar(&downloadDedup, "dedup", false, "skip posts whose media hashes repeat")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}
	if mediaClient == nil {
		return errors.New("media client not configured")
	}

	ctx := cmd.Context()
	posts, err := aggregator.SearchPosts(ctx, args[0], driving.QueryOptions{
		Finder: downloadFinder,
		Limit:  downloadLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(posts) == 0 {
		cmd.Println("No posts found.")
		return nil
	}

	if downloadDedup {
		before := len(posts)
		posts = filterDuplicatePosts(ctx, posts)
		if dropped := before - len(posts); dropped > 0 {
			cmd.Printf("Skipping %d duplicate posts.\n", dropped)
		}
	}

	cmd.Printf("Downloading %d posts to %s...\n", len(posts), downloadDir)
	downloader := services.NewDownloader(mediaClient, downloadConcurrency, downloadRate)
	paths, err := downloader.Download(ctx, posts, downloadDir)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	cmd.Printf("Downloaded %d files.\n", len(paths))
	return nil
}

// filterDuplicatePosts drops posts whose media hashes were already
// seen. Hashes are computed on demand, which costs one media fetch
// per post without a source-reported checksum.
func filterDuplicatePosts(ctx context.Context, posts []*domain.Post) []*domain.Post {
	return services.FilterDuplicates(ctx, posts, services.DedupOptions{
		ComputeMissing: true,
		Fetcher:        mediaClient,
	})
}
