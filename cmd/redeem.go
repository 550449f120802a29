package cmd

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/arbit-labs/clobarb/internal/discovery"
	"github.com/arbit-labs/clobarb/internal/redemption"
	"github.com/arbit-labs/clobarb/pkg/config"
	"github.com/arbit-labs/clobarb/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var redeemCmd = &cobra.Command{
	Use:   "redeem",
	Short: "Sweep and redeem settled positions through the redemption tracker",
	Long: `Fetches current positions, loads the ones in settled markets into the
position redemption tracker, and redeems every ready position in one sweep.
Unlike redeem-positions, this drives the same internal/redemption.Tracker
and OnChainRedeemer the bot loop's background sweep uses.`,
	RunE: runRedeem,
}

var redeemRPC string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(redeemCmd)
	redeemCmd.Flags().StringVar(&redeemRPC, "rpc", "https://polygon-rpc.com", "Polygon RPC URL")
}

func runRedeem(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	privateKeyHex := os.Getenv("POLYMARKET_PRIVATE_KEY")
	if privateKeyHex == "" {
		return errors.New("POLYMARKET_PRIVATE_KEY not set")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return errors.New("error casting public key to ECDSA")
	}
	address := crypto.PubkeyToAddress(*publicKey)

	ethClient, err := ethclient.DialContext(ctx, redeemRPC)
	if err != nil {
		return fmt.Errorf("dial RPC: %w", err)
	}
	defer ethClient.Close()

	redeemer, err := redemption.NewOnChainRedeemer(ethClient, privateKey, logger)
	if err != nil {
		return fmt.Errorf("create redeemer: %w", err)
	}

	walletClient, err := wallet.NewClient(redeemRPC, logger)
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	discoveryClient := discovery.NewClient(cfg.PolymarketGammaURL, logger)

	positions, err := walletClient.GetPositions(ctx, address.Hex())
	if err != nil {
		return fmt.Errorf("get positions: %w", err)
	}

	tracker := redemption.New()
	now := time.Now()

	for i := range positions {
		p := &positions[i]
		market, fetchErr := discoveryClient.FetchMarketBySlug(ctx, p.MarketSlug)
		if fetchErr != nil {
			logger.Warn("skip-market-state-lookup-failed",
				zap.String("slug", p.MarketSlug), zap.Error(fetchErr))
			continue
		}
		if !market.Closed {
			continue
		}

		past := now.Add(-time.Minute)
		tracker.AddPosition(&redemption.RedeemablePosition{
			MarketID:   market.ConditionID,
			Title:      market.Question,
			YesTokenID: p.TokenID,
			Size:       p.Size,
			Expiry:     &past,
			OpenedAt:   now,
		})
	}

	fmt.Printf("Loaded %d settled position(s) into tracker\n", tracker.UnredeemedCount())

	failures := tracker.AutoRedeemAll(ctx, redeemer, now)
	redeemed := tracker.UnredeemedCount() == 0

	for marketID, redeemErr := range failures {
		fmt.Printf("❌ %s: %v\n", marketID, redeemErr)
	}

	if len(failures) == 0 && redeemed {
		fmt.Printf("✓ all ready positions redeemed\n")
	}

	logger.Info("redeem-sweep-complete",
		zap.Int("failed", len(failures)))

	return nil
}
