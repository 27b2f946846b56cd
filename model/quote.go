package model

// Quote is a single quotation attributed to one author.
// AuthorName is set by the harvester, AuthorID once the author is resolved in the store.
type Quote struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	AuthorName string `json:"author"`
	AuthorID   int64  `json:"author_id,omitempty"`
}
