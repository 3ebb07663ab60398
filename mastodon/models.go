package mastodon

import (
	"time"
)

// Account is the subset of a Mastodon account we care about.
type Account struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Avatar      string `json:"avatar"`
}

// Status is the subset of a Mastodon status we care about.
type Status struct {
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`
}

// Context is the reply tree around a status. Descendants are the replies.
type Context struct {
	Ancestors   []Status `json:"ancestors"`
	Descendants []Status `json:"descendants"`
}
