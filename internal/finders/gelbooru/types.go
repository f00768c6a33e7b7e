package gelbooru

import (
	"encoding/json"
	"encoding/xml"
)

// searchEnvelope is the dapi JSON response wrapper. The post list is
// absent entirely when a query matches nothing.
type searchEnvelope struct {
	Attributes struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
	} `json:"@attributes"`
	Posts []apiPost `json:"post"`
}

// apiPost is the subset of the Gelbooru post payload the finder uses.
type apiPost struct {
	ID         int64  `json:"id"`
	Tags       string `json:"tags"`
	Source     string `json:"source"`
	FileURL    string `json:"file_url"`
	PreviewURL string `json:"preview_url"`
	MD5        string `json:"md5"`
	Rating     string `json:"rating"`
	ParentID   int64  `json:"parent_id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Owner      string `json:"owner"`
	CreatorID  int64  `json:"creator_id"`
	Title      string `json:"title"`
}

// valid reports whether the post references downloadable media.
func (p apiPost) valid() bool {
	return p.MD5 != "" && p.FileURL != ""
}

// commentEnvelope wraps the dapi comment response. Unlike posts and
// notes, comments are only served as XML.
type commentEnvelope struct {
	XMLName  xml.Name     `xml:"comments"`
	Comments []apiComment `xml:"comment"`
}

// apiComment is the Gelbooru comment payload. All fields arrive as
// element attributes.
type apiComment struct {
	ID        int64  `xml:"id,attr"`
	PostID    int64  `xml:"post_id,attr"`
	CreatorID int64  `xml:"creator_id,attr"`
	Creator   string `xml:"creator,attr"`
	Body      string `xml:"body,attr"`
	CreatedAt string `xml:"created_at,attr"`
}

// noteEnvelope wraps the dapi note response.
type noteEnvelope struct {
	Notes []apiNote `json:"note"`
}

// apiNote is the subset of the Gelbooru note payload the finder uses.
// Numeric fields arrive as strings in some deployments, so they are
// decoded leniently.
type apiNote struct {
	ID        flexInt64 `json:"id"`
	PostID    flexInt64 `json:"post_id"`
	X         flexInt64 `json:"x"`
	Y         flexInt64 `json:"y"`
	Width     flexInt64 `json:"width"`
	Height    flexInt64 `json:"height"`
	Body      string    `json:"body"`
	CreatedAt string    `json:"created_at"`
}

// flexInt64 decodes a JSON value that may be either a number or a
// quoted number.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}
