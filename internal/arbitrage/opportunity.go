package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Opportunity represents an arbitrage opportunity. The Yes/No fields are
// populated by the legacy two-outcome constructor below; Outcomes and
// TotalPriceSum are populated by NewMultiOutcomeOpportunity and cover any
// number of outcomes, including two.
type Opportunity struct {
	ID                string
	MarketID          string
	MarketSlug        string
	MarketQuestion    string
	YesTokenID        string // Token ID for YES outcome
	NoTokenID         string // Token ID for NO outcome
	DetectedAt        time.Time
	YesAskPrice       float64 // Price to BUY YES (was YesBidPrice)
	YesAskSize        float64 // Size available to BUY YES (was YesBidSize)
	NoAskPrice        float64 // Price to BUY NO (was NoBidPrice)
	NoAskSize         float64 // Size available to BUY NO (was NoBidSize)
	PriceSum          float64
	Outcomes          []OpportunityOutcome
	TotalPriceSum     float64
	ProfitMargin      float64
	ProfitBPS         int
	MaxTradeSize      float64
	EstimatedProfit   float64
	TotalFees         float64
	NetProfit         float64
	NetProfitBPS      int
	ConfigMaxPriceSum float64
}

// OpportunityOutcome is one outcome's ask-side market data at the moment an
// N-ary opportunity was detected, carried through to execution so the order
// client doesn't have to re-fetch tick size and minimum order size.
type OpportunityOutcome struct {
	TokenID  string
	Outcome  string
	AskPrice float64
	AskSize  float64
	TickSize float64
	MinSize  float64
}

// NewMultiOutcomeOpportunity creates an arbitrage opportunity spanning any
// number of outcomes: buying maxSize shares of every outcome costs
// priceSum*maxSize and always redeems for maxSize at resolution, since
// exactly one outcome pays out $1 per share. This subsumes the two-outcome
// case; NewOpportunity below is kept only for callers still on the binary
// shape.
func NewMultiOutcomeOpportunity(
	marketID string,
	marketSlug string,
	marketQuestion string,
	outcomes []OpportunityOutcome,
	maxSize float64,
	threshold float64,
	takerFee float64,
) *Opportunity {
	priceSum := 0.0
	for _, o := range outcomes {
		priceSum += o.AskPrice
	}
	profitMargin := 1.0 - priceSum

	totalCost := priceSum * maxSize
	totalFees := totalCost * takerFee
	grossProfit := profitMargin * maxSize
	netProfit := grossProfit - totalFees

	var netProfitBPS int
	if maxSize > 0 {
		netProfitBPS = int((netProfit / maxSize) * 10000)
	}

	return &Opportunity{
		ID:                uuid.New().String(),
		MarketID:          marketID,
		MarketSlug:        marketSlug,
		MarketQuestion:    marketQuestion,
		Outcomes:          outcomes,
		DetectedAt:        time.Now(),
		TotalPriceSum:     priceSum,
		ProfitMargin:      profitMargin,
		ProfitBPS:         int(profitMargin * 10000),
		MaxTradeSize:      maxSize,
		EstimatedProfit:   grossProfit,
		TotalFees:         totalFees,
		NetProfit:         netProfit,
		NetProfitBPS:      netProfitBPS,
		ConfigMaxPriceSum: threshold,
	}
}

// NewOpportunity creates a new arbitrage opportunity with fee accounting.
// Parameters are ASK prices and sizes (the prices you PAY to BUY).
func NewOpportunity(
	marketID string,
	marketSlug string,
	marketQuestion string,
	yesTokenID string,
	noTokenID string,
	yesAskPrice float64,
	yesAskSize float64,
	noAskPrice float64,
	noAskSize float64,
	threshold float64,
	takerFee float64,
) *Opportunity {
	priceSum := yesAskPrice + noAskPrice
	profitMargin := 1.0 - priceSum

	maxSize := yesAskSize
	if noAskSize < maxSize {
		maxSize = noAskSize
	}

	// Calculate fees (taker fee on both sides since we're taking liquidity)
	totalCost := (yesAskPrice + noAskPrice) * maxSize
	totalFees := totalCost * takerFee
	grossProfit := profitMargin * maxSize
	netProfit := grossProfit - totalFees

	return &Opportunity{
		ID:                uuid.New().String(),
		MarketID:          marketID,
		MarketSlug:        marketSlug,
		MarketQuestion:    marketQuestion,
		YesTokenID:        yesTokenID,
		NoTokenID:         noTokenID,
		DetectedAt:        time.Now(),
		YesAskPrice:       yesAskPrice,
		YesAskSize:        yesAskSize,
		NoAskPrice:        noAskPrice,
		NoAskSize:         noAskSize,
		PriceSum:          priceSum,
		ProfitMargin:      profitMargin,
		ProfitBPS:         int(profitMargin * 10000),
		MaxTradeSize:      maxSize,
		EstimatedProfit:   grossProfit,
		TotalFees:         totalFees,
		NetProfit:         netProfit,
		NetProfitBPS:      int((netProfit / maxSize) * 10000),
		ConfigMaxPriceSum: threshold,
	}
}

// String returns a human-readable representation of the opportunity.
func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] Market=%s YES=%.4f NO=%.4f Sum=%.4f Profit=%dbps Size=%.2f Est=$%.2f",
		o.ID[:8],
		o.MarketSlug,
		o.YesAskPrice,
		o.NoAskPrice,
		o.PriceSum,
		o.ProfitBPS,
		o.MaxTradeSize,
		o.EstimatedProfit,
	)
}
