package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boorufind/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/boorufind/internal/core/domain"
	"github.com/custodia-labs/boorufind/internal/core/services"
)

var (
	getFinder     string
	getJSON       bool
	getChildren   bool
	getParent     bool
	getExportJSON string
	getExportZip  string
	getArchive    bool
)

var getCmd = &cobra.Command{
	Use:   "get [post-id]",
	Short: "Fetch a single post by ID",
	Long: `Fetches one post. Without --finder the registered sources are
scanned in registration order and the first match wins.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getFinder, "finder", "f", "", "query a single source by name")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output the post as JSON")
	getCmd.Flags().BoolVar(&getParent, "parent", false, "also resolve the post's parent")
	getCmd.Flags().BoolVar(&getChildren, "children", false, "also resolve the post's children")
	getCmd.Flags().StringVar(&getExportJSON, "export-json", "", "write the post as a JSON file into this directory")
	getCmd.Flags().StringVar(&getExportZip, "export-zip", "", "write the post and its media as a zip into this directory")
	getCmd.Flags().BoolVar(&getArchive, "archive", false, "save the post to the local archive database")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post ID %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	post, err := aggregator.GetPost(ctx, id, getFinder)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("post %d not found", id)
		}
		return fmt.Errorf("get post failed: %w", err)
	}

	if getParent {
		if _, err := aggregator.GetParent(ctx, post, post.Source); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("resolve parent: %w", err)
		}
	}
	if getChildren {
		if _, err := aggregator.GetChildren(ctx, post, post.Source); err != nil {
			return fmt.Errorf("resolve children: %w", err)
		}
	}

	if getExportJSON != "" {
		path, err := file.ExportJSON(post, getExportJSON)
		if err != nil {
			return fmt.Errorf("export JSON: %w", err)
		}
		cmd.Printf("Wrote %s\n", path)
	}

	if getExportZip != "" {
		fetcher := services.NewFetcher(mediaClient, services.DefaultMaxConcurrency, services.DefaultMaxRate)
		if err := fetcher.FetchAll(ctx, []*domain.Post{post}, services.FetchOptions{Block: true}); err != nil {
			return fmt.Errorf("fetch media: %w", err)
		}
		path, err := file.ExportArchive(post, getExportZip)
		if err != nil {
			return fmt.Errorf("export archive: %w", err)
		}
		cmd.Printf("Wrote %s\n", path)
	}

	if getArchive {
		if postArchive == nil {
			return errors.New("archive not configured")
		}
		if err := postArchive.SavePost(ctx, post); err != nil {
			return fmt.Errorf("archive post: %w", err)
		}
		cmd.Printf("Archived %s\n", post.Name)
	}

	if getJSON {
		data, err := json.MarshalIndent(postSummary(post), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal post: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputPostDetail(cmd, post)
	return nil
}

func outputPostDetail(cmd *cobra.Command, post *domain.Post) {
	cmd.Printf("%s\n", post.Name)
	cmd.Printf("  Source:  %s\n", post.Source)
	cmd.Printf("  Rating:  %s\n", post.Rating)
	if post.Poster != "" {
		cmd.Printf("  Poster:  %s (%d)\n", post.Poster, post.PosterID)
	}
	if len(post.Dimensions) > 0 {
		d := post.Dimensions[0]
		cmd.Printf("  Size:    %dx%d\n", d.Width, d.Height)
	}
	cmd.Printf("  Tags:    %s\n", post.TagString())
	for _, u := range post.MediaURLs {
		cmd.Printf("  Media:   %s\n", u)
	}
	if parent := post.Parent(); parent != nil {
		cmd.Printf("  Parent:  %s\n", parent.Name)
	}
	if children := post.Children(); len(children) > 0 {
		cmd.Printf("  Children:\n")
		for _, c := range children {
			cmd.Printf("    %s\n", c.Name)
		}
	}
}
