package arbitrage

import (
	"time"

	"github.com/arbit-labs/clobarb/internal/fixedpoint"
	"github.com/arbit-labs/clobarb/internal/orderbook"
	"github.com/google/uuid"
)

// CrossedBookOpportunity represents a single token whose own best bid has
// risen above its own best ask — a momentarily crossed book, rather than
// the two-sided YES/NO complementary arbitrage that Opportunity covers.
// A crossed book is rare (the venue's matching engine should prevent it)
// but when it appears it is free money: buy at the ask, sell at the bid,
// on the same token.
type CrossedBookOpportunity struct {
	ID           string
	MarketID     string
	TokenID      string
	DetectedAt   time.Time
	BidPrice     float64
	BidSize      float64
	AskPrice     float64
	AskSize      float64
	Spread       float64
	ProfitMargin float64
	MaxTradeSize float64
}

// DetectCrossed checks a single token's order book for a crossed
// condition: best_bid >= best_ask. Comparison is done in fixed-point to
// avoid float noise turning a one-micro-dollar-wide crossed book into a
// false negative.
func DetectCrossed(book *orderbook.Book, minProfitMargin fixedpoint.Price, minSize float64) (*CrossedBookOpportunity, bool) {
	bid, okBid := book.BestBid()
	ask, okAsk := book.BestAsk()
	if !okBid || !okAsk {
		return nil, false
	}

	bidFixed := fixedpoint.FromFloat(bid.Price)
	askFixed := fixedpoint.FromFloat(ask.Price)

	margin, crossed := fixedpoint.ProfitMargin(bidFixed, askFixed)
	if !crossed {
		return nil, false
	}
	if margin < minProfitMargin {
		return nil, false
	}

	maxSize := bid.Size
	if ask.Size < maxSize {
		maxSize = ask.Size
	}
	if maxSize < minSize {
		return nil, false
	}

	spread, _ := fixedpoint.Spread(bidFixed, askFixed)

	return &CrossedBookOpportunity{
		ID:           uuid.New().String(),
		MarketID:     book.MarketID,
		TokenID:      book.TokenID,
		DetectedAt:   time.Now(),
		BidPrice:     bid.Price,
		BidSize:      bid.Size,
		AskPrice:     ask.Price,
		AskSize:      ask.Size,
		Spread:       spread.ToFloat(),
		ProfitMargin: margin.ToFloat(),
		MaxTradeSize: maxSize,
	}, true
}
