package danbooru

// apiPost is the subset of the Danbooru post payload the finder uses.
type apiPost struct {
	ID              int64  `json:"id"`
	TagString       string `json:"tag_string"`
	TagStringArtist string `json:"tag_string_artist"`
	Source          string `json:"source"`
	FileURL         string `json:"file_url"`
	PreviewFileURL  string `json:"preview_file_url"`
	MD5             string `json:"md5"`
	Rating          string `json:"rating"`
	ParentID        *int64 `json:"parent_id"`
	ImageWidth      int    `json:"image_width"`
	ImageHeight     int    `json:"image_height"`
	UploaderID      int64  `json:"uploader_id"`
}

// valid reports whether the post references downloadable media.
// Banned and restricted posts come back without file_url or md5.
func (p apiPost) valid() bool {
	return p.MD5 != "" && p.FileURL != ""
}

// apiComment is the subset of the Danbooru comment payload the finder
// uses.
type apiComment struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	CreatorID int64  `json:"creator_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	IsDeleted bool   `json:"is_deleted"`
}

// apiNote is the subset of the Danbooru note payload the finder uses.
type apiNote struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}
