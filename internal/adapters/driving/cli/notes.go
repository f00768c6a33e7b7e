package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	notesFinder   string
	notesJSON     bool
	notesMarkdown bool
)

var notesCmd = &cobra.Command{
	Use:   "notes [post-id]",
	Short: "List the annotations on a post",
	Long: `Lists the annotations (translation notes and similar overlays) placed
on a post, from every registered source or a single one.`,
	Args: cobra.ExactArgs(1),
	RunE: runNotes,
}

func init() {
	notesCmd.Flags().StringVarP(&notesFinder, "finder", "f", "", "query a single source by name")
	notesCmd.Flags().BoolVar(&notesJSON, "json", false, "output notes as JSON")
	notesCmd.Flags().BoolVar(&notesMarkdown, "markdown", false, "render note bodies as Markdown")
	rootCmd.AddCommand(notesCmd)
}

func runNotes(cmd *cobra.Command, args []string) error {
	if aggregator == nil {
		return errors.New("aggregator not configured")
	}

	postID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post ID %q: %w", args[0], err)
	}

	notes, err := aggregator.GetNotes(cmd.Context(), postID, notesFinder)
	if err != nil {
		return fmt.Errorf("note lookup failed: %w", err)
	}

	if notesJSON {
		data, err := json.MarshalIndent(notes, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal notes: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(notes) == 0 {
		cmd.Println("No notes found.")
		return nil
	}

	for _, n := range notes {
		body := n.Body
		if notesMarkdown {
			rendered, err := n.BodyMarkdown()
			if err != nil {
				return fmt.Errorf("render note body: %w", err)
			}
			body = rendered
		}
		cmd.Printf("[%s] (%d,%d %dx%d) %s\n", n.Source, n.X, n.Y, n.Width, n.Height, body)
	}
	return nil
}
