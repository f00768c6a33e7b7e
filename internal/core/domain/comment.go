package domain

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Comment is a normalized comment on a post.
// CreatedAt is always Unix epoch seconds, whatever timestamp format
// the source platform uses.
type Comment struct {
	// ID is the comment's identifier on its source platform.
	ID int64 `json:"comment_id"`

	// PostID is the ID of the post the comment belongs to.
	PostID int64 `json:"post_id"`

	// CreatorID is the commenting user's platform ID.
	CreatorID int64 `json:"creator_id"`

	// Creator is the commenting user's name, when the platform provides it.
	Creator string `json:"creator"`

	// Body is the comment text. May contain platform markup or HTML.
	Body string `json:"body"`

	// Source identifies the platform the comment came from.
	Source string `json:"source"`

	// CreatedAt is the creation time in Unix epoch seconds.
	CreatedAt int64 `json:"created_at"`
}

// BodyMarkdown converts the comment body to Markdown, stripping any
// HTML markup the platform embeds.
func (c *Comment) BodyMarkdown() (string, error) {
	return htmlToMarkdown(c.Body)
}

// String renders a compact description for logs.
func (c *Comment) String() string {
	return fmt.Sprintf("<Comment %s/%d post=%d>", c.Source, c.ID, c.PostID)
}

func htmlToMarkdown(body string) (string, error) {
	converted, err := md.NewConverter("", true, nil).ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert body: %w", err)
	}
	return converted, nil
}
