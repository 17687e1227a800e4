package alert

import "ticket-price-tracker/internal/types"

// Outcome classifies what a quote did to a watch item.
type Outcome int

const (
	// OutcomeUnchanged means the quote repeated the last price.
	OutcomeUnchanged Outcome = iota
	// OutcomePriceChanged means last_price moved without a new minimum.
	OutcomePriceChanged
	// OutcomeNewLowest means the quote set a new lowest price.
	OutcomeNewLowest
)

func (o Outcome) String() string {
	switch o {
	case OutcomePriceChanged:
		return "price_changed"
	case OutcomeNewLowest:
		return "new_lowest"
	default:
		return "unchanged"
	}
}

// Decision is the result of applying one quote to one watch item.
type Decision struct {
	Outcome      Outcome
	Update       types.PriceUpdate
	Notification *types.Notification
}

// Evaluate decides how item changes for quote q. A notification is only
// produced for a new lowest price at or below the item's target.
func Evaluate(item types.WatchItem, q types.Quote) Decision {
	if item.LowestPrice == nil || q.Price < *item.LowestPrice {
		d := Decision{
			Outcome: OutcomeNewLowest,
			Update: types.PriceUpdate{
				LastPrice:   types.Float(q.Price),
				LowestPrice: types.Float(q.Price),
			},
		}
		if item.TargetPrice != nil && q.Price <= *item.TargetPrice {
			d.Notification = &types.Notification{
				ItemID:      item.ID,
				Email:       item.Email,
				ConcertName: item.ConcertName,
				Price:       q.Price,
				Link:        q.Link,
			}
		}
		return d
	}

	if item.LastPrice == nil || q.Price != *item.LastPrice {
		return Decision{
			Outcome: OutcomePriceChanged,
			Update:  types.PriceUpdate{LastPrice: types.Float(q.Price)},
		}
	}

	return Decision{Outcome: OutcomeUnchanged}
}

// Apply returns a copy of item with d's update applied.
func Apply(item types.WatchItem, d Decision) types.WatchItem {
	if d.Update.LastPrice != nil {
		item.LastPrice = types.Float(*d.Update.LastPrice)
	}
	if d.Update.LowestPrice != nil {
		item.LowestPrice = types.Float(*d.Update.LowestPrice)
	}
	return item
}
