package model

// Markers substituted at query time for missing author data.
const (
	UnknownBirth = "Неизвестно"
	NoQuote      = "Цитат не найдено."
)

// Author is a quote author keyed by its unique name.
type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Birth string `json:"birth,omitempty"` // free text, "<date> <location>" as scraped
}

// AuthorDetail is the card shown for a single author.
type AuthorDetail struct {
	Name  string `json:"name"`
	Birth string `json:"birth"`
	Bio   string `json:"bio"`
	Quote string `json:"quote"`
}
