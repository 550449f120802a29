package orderbook

import (
	"sort"
	"strconv"

	"github.com/arbit-labs/clobarb/pkg/types"
)

// Level is one parsed price level: price and size as floats, sorted order
// depends on which side of the book it came from.
type Level struct {
	Price float64
	Size  float64
}

// Book is a full-depth view of a single token's order book, kept sorted so
// best_bid and best_ask are always index 0. Bids are sorted descending by
// price; asks are sorted ascending by price — this is the invariant every
// caller of Book relies on instead of re-scanning on every read.
type Book struct {
	MarketID string
	TokenID  string
	Outcome  string
	Bids     []Level
	Asks     []Level
}

// NewBookFromLevels parses raw string price levels from the wire format
// into a sorted Book. Malformed levels (non-numeric price or size) are
// skipped rather than aborting the whole snapshot, since a single bad
// level should not blind the detector to the rest of the book.
func NewBookFromLevels(marketID, tokenID, outcome string, bids, asks []types.PriceLevel) *Book {
	b := &Book{MarketID: marketID, TokenID: tokenID, Outcome: outcome}
	b.Bids = parseLevels(bids)
	b.Asks = parseLevels(asks)
	sort.Slice(b.Bids, func(i, j int) bool { return b.Bids[i].Price > b.Bids[j].Price })
	sort.Slice(b.Asks, func(i, j int) bool { return b.Asks[i].Price < b.Asks[j].Price })
	return b
}

func parseLevels(raw []types.PriceLevel) []Level {
	out := make([]Level, 0, len(raw))
	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil {
			continue
		}
		if size <= 0 {
			continue
		}
		out = append(out, Level{Price: price, Size: size})
	}
	return out
}

// BestBid returns the highest bid level, or false if the book has no bids.
func (b *Book) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask level, or false if the book has no asks.
func (b *Book) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// HasDepth reports whether the best level on both sides can fill at least
// minSize.
func (b *Book) HasDepth(minSize float64) bool {
	bid, ok := b.BestBid()
	if !ok || bid.Size < minSize {
		return false
	}
	ask, ok := b.BestAsk()
	if !ok || ask.Size < minSize {
		return false
	}
	return true
}

// ApplyPriceChange updates or removes a single level on one side of the
// book, preserving sort order. A size of zero removes the level; any other
// size inserts it in sorted position (updating in place if the price
// already exists).
func (b *Book) ApplyPriceChange(side string, price, size float64) {
	switch side {
	case "BUY", "buy":
		b.Bids = applyLevel(b.Bids, price, size, true)
	case "SELL", "sell":
		b.Asks = applyLevel(b.Asks, price, size, false)
	}
}

func applyLevel(levels []Level, price, size float64, descending bool) []Level {
	idx := -1
	for i, l := range levels {
		if l.Price == price {
			idx = i
			break
		}
	}
	if size <= 0 {
		if idx >= 0 {
			levels = append(levels[:idx], levels[idx+1:]...)
		}
		return levels
	}
	if idx >= 0 {
		levels[idx].Size = size
		return levels
	}
	levels = append(levels, Level{Price: price, Size: size})
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}
