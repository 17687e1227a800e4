package types

import (
	"errors"
	"time"
)

// ErrWatchItemNotFound is returned by stores for ids that do not exist.
var ErrWatchItemNotFound = errors.New("watch item not found")

// WatchItem is one tracked event. LastPrice and LowestPrice stay nil until
// the first successful quote.
type WatchItem struct {
	ID          int64     `json:"id"`
	ConcertName string    `json:"concert_name"`
	TicketURL   string    `json:"ticket_url"`
	Email       string    `json:"email"`
	TargetPrice *float64  `json:"target_price"`
	LastPrice   *float64  `json:"last_price"`
	LowestPrice *float64  `json:"lowest_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceUpdate carries the fields a transition proposes. A nil field is left
// untouched by the store.
type PriceUpdate struct {
	LastPrice   *float64
	LowestPrice *float64
}

// Empty reports whether the update would change nothing.
func (u PriceUpdate) Empty() bool {
	return u.LastPrice == nil && u.LowestPrice == nil
}

// Candidate is a single scraped price element before parsing.
type Candidate struct {
	RawPrice string `json:"price"`
	Link     string `json:"link"`
}

// Quote is the best observation of one fetch. Price is always a parsed,
// non-negative number; a missing quote is reported as ok == false by the
// producer instead.
type Quote struct {
	Price float64
	Link  string
}

// Notification is what gets delivered to the watcher of an item.
type Notification struct {
	ItemID      int64
	Email       string
	ConcertName string
	Price       float64
	Link        string
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
