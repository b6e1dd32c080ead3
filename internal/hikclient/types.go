package hikclient

import "time"

// SearchJob identifies one CMSearch session on the recorder. The firmware
// keys result cursors on the searchID, so an ID must never be reused for a
// different time span within the same run.
type SearchJob struct {
	ID       string
	Start    time.Time // inclusive
	End      time.Time // exclusive
	PageSize int       // rows per page (maxResults)
}

// Page is one CMSearch response. The payload stays opaque; only the number
// of matched rows is ever inspected.
type Page struct {
	Raw     []byte
	Matches int
}

func (p Page) Empty() bool {
	return p.Matches == 0
}
