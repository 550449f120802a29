package arbitrage

import (
	"time"

	"github.com/arbit-labs/clobarb/internal/orderbook"
	"github.com/google/uuid"
)

// BinaryDirection distinguishes the two ways a YES/NO pair can be
// arbitraged: buying both legs when their asks sum to less than one, or
// selling both legs when their bids sum to more than one.
type BinaryDirection string

const (
	// DirectionBuy buys YES and NO when ask(YES)+ask(NO) < 1.
	DirectionBuy BinaryDirection = "BUY"
	// DirectionSell sells YES and NO when bid(YES)+bid(NO) > 1.
	DirectionSell BinaryDirection = "SELL"
)

// BinaryOpportunity is a complementary YES/NO arbitrage opportunity,
// found on either the buy side or the sell side of the pair.
type BinaryOpportunity struct {
	ID              string
	MarketID        string
	MarketSlug      string
	MarketQuestion  string
	YesTokenID      string
	NoTokenID       string
	Direction       BinaryDirection
	DetectedAt      time.Time
	YesPrice        float64
	YesSize         float64
	NoPrice         float64
	NoSize          float64
	PriceSum        float64
	ProfitMargin    float64
	MaxTradeSize    float64
	EstimatedProfit float64
	TotalFees       float64
	NetProfit       float64
}

// BinaryConfig bounds what DetectBinary is willing to report.
type BinaryConfig struct {
	MinProfitMargin float64
	MinTradeSize    float64
	MaxTradeSize    float64
	TakerFee        float64
}

// DetectBinary checks a YES/NO token pair for complementary arbitrage,
// trying the buy branch (sum of asks under one dollar) before the sell
// branch (sum of bids over one dollar) — a fixed, deterministic order so
// that a book crossed on both sides at once always reports the buy-side
// opportunity.
func DetectBinary(marketID, marketSlug, marketQuestion string, yesBook, noBook *orderbook.Book, cfg BinaryConfig) (*BinaryOpportunity, bool) {
	if opp, ok := detectBinaryBuy(marketID, marketSlug, marketQuestion, yesBook, noBook, cfg); ok {
		return opp, true
	}
	return detectBinarySell(marketID, marketSlug, marketQuestion, yesBook, noBook, cfg)
}

func detectBinaryBuy(marketID, marketSlug, marketQuestion string, yesBook, noBook *orderbook.Book, cfg BinaryConfig) (*BinaryOpportunity, bool) {
	yesAsk, ok := yesBook.BestAsk()
	if !ok {
		return nil, false
	}
	noAsk, ok := noBook.BestAsk()
	if !ok {
		return nil, false
	}

	priceSum := yesAsk.Price + noAsk.Price
	profitMargin := 1.0 - priceSum
	if profitMargin < cfg.MinProfitMargin {
		return nil, false
	}

	maxSize := yesAsk.Size
	if noAsk.Size < maxSize {
		maxSize = noAsk.Size
	}
	if cfg.MaxTradeSize > 0 && maxSize > cfg.MaxTradeSize {
		maxSize = cfg.MaxTradeSize
	}
	if maxSize < cfg.MinTradeSize {
		return nil, false
	}

	totalCost := priceSum * maxSize
	totalFees := totalCost * cfg.TakerFee
	grossProfit := profitMargin * maxSize
	netProfit := grossProfit - totalFees
	if netProfit <= 0 {
		return nil, false
	}

	return &BinaryOpportunity{
		ID:              uuid.New().String(),
		MarketID:        marketID,
		MarketSlug:      marketSlug,
		MarketQuestion:  marketQuestion,
		YesTokenID:      yesBook.TokenID,
		NoTokenID:       noBook.TokenID,
		Direction:       DirectionBuy,
		DetectedAt:      time.Now(),
		YesPrice:        yesAsk.Price,
		YesSize:         yesAsk.Size,
		NoPrice:         noAsk.Price,
		NoSize:          noAsk.Size,
		PriceSum:        priceSum,
		ProfitMargin:    profitMargin,
		MaxTradeSize:    maxSize,
		EstimatedProfit: grossProfit,
		TotalFees:       totalFees,
		NetProfit:       netProfit,
	}, true
}

func detectBinarySell(marketID, marketSlug, marketQuestion string, yesBook, noBook *orderbook.Book, cfg BinaryConfig) (*BinaryOpportunity, bool) {
	yesBid, ok := yesBook.BestBid()
	if !ok {
		return nil, false
	}
	noBid, ok := noBook.BestBid()
	if !ok {
		return nil, false
	}

	priceSum := yesBid.Price + noBid.Price
	profitMargin := priceSum - 1.0
	if profitMargin < cfg.MinProfitMargin {
		return nil, false
	}

	maxSize := yesBid.Size
	if noBid.Size < maxSize {
		maxSize = noBid.Size
	}
	if cfg.MaxTradeSize > 0 && maxSize > cfg.MaxTradeSize {
		maxSize = cfg.MaxTradeSize
	}
	if maxSize < cfg.MinTradeSize {
		return nil, false
	}

	totalProceeds := priceSum * maxSize
	totalFees := totalProceeds * cfg.TakerFee
	grossProfit := profitMargin * maxSize
	netProfit := grossProfit - totalFees
	if netProfit <= 0 {
		return nil, false
	}

	return &BinaryOpportunity{
		ID:              uuid.New().String(),
		MarketID:        marketID,
		MarketSlug:      marketSlug,
		MarketQuestion:  marketQuestion,
		YesTokenID:      yesBook.TokenID,
		NoTokenID:       noBook.TokenID,
		Direction:       DirectionSell,
		DetectedAt:      time.Now(),
		YesPrice:        yesBid.Price,
		YesSize:         yesBid.Size,
		NoPrice:         noBid.Price,
		NoSize:          noBid.Size,
		PriceSum:        priceSum,
		ProfitMargin:    profitMargin,
		MaxTradeSize:    maxSize,
		EstimatedProfit: grossProfit,
		TotalFees:       totalFees,
		NetProfit:       netProfit,
	}, true
}
