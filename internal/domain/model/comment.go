package model

// Comment is a general comment on an issue or pull request (GitHub Issues API).
type Comment struct {
	ID   int64
	Body string
}
