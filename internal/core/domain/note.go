package domain

import "fmt"

// Note is a normalized annotation placed on a region of a post's image.
// The bounding box coordinates are in the image's original pixel space.
type Note struct {
	// ID is the note's identifier on its source platform.
	ID int64 `json:"note_id"`

	// CreatedAt is the creation time in Unix epoch seconds.
	CreatedAt int64 `json:"created_at"`

	// X is the left edge of the bounding box.
	X int `json:"x"`

	// Y is the top edge of the bounding box.
	Y int `json:"y"`

	// Width is the bounding box width.
	Width int `json:"width"`

	// Height is the bounding box height.
	Height int `json:"height"`

	// Body is the note text. May contain HTML markup.
	Body string `json:"body"`

	// Source identifies the platform the note came from.
	Source string `json:"source"`

	// PostID is the ID of the post the note is placed on.
	PostID int64 `json:"post_id"`
}

// BodyMarkdown converts the note body to Markdown, stripping any HTML
// markup the platform embeds.
func (n *Note) BodyMarkdown() (string, error) {
	return htmlToMarkdown(n.Body)
}

// String renders a compact description for logs.
func (n *Note) String() string {
	return fmt.Sprintf("<Note %s/%d post=%d box=%dx%d+%d+%d>", n.Source, n.ID, n.PostID, n.Width, n.Height, n.X, n.Y)
}
