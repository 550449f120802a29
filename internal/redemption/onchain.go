package redemption

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	ctfContractAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	redeemUSDCAddress  = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	polygonChainID     = 137
	redeemGasLimit     = 250000
)

const redeemPositionsABI = `[{
	"inputs": [
		{"name": "collateralToken", "type": "address"},
		{"name": "parentCollectionId", "type": "bytes32"},
		{"name": "conditionId", "type": "bytes32"},
		{"name": "indexSets", "type": "uint256[]"}
	],
	"name": "redeemPositions",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

// OnChainRedeemer submits CTF redeemPositions transactions for resolved
// binary markets. It redeems both outcome index sets (YES=1, NO=2) in a
// single call, since a paired-arb position always holds both legs of the
// pair rather than a single outcome.
type OnChainRedeemer struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	abi        abi.ABI
	logger     *zap.Logger
}

// NewOnChainRedeemer builds a redeemer bound to the given signing key and
// RPC client.
func NewOnChainRedeemer(client *ethclient.Client, privateKey *ecdsa.PrivateKey, logger *zap.Logger) (*OnChainRedeemer, error) {
	parsed, err := abi.JSON(strings.NewReader(redeemPositionsABI))
	if err != nil {
		return nil, fmt.Errorf("parse redeemPositions abi: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("redemption: invalid signing key")
	}

	return &OnChainRedeemer{
		client:     client,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		abi:        parsed,
		logger:     logger,
	}, nil
}

// Redeem implements Redeemer. marketID is the CTF condition ID as a hex
// string. yesTokenID and noTokenID are accepted to satisfy the Redeemer
// interface and logged for traceability, but redeemPositions redeems by
// condition ID and index set, not by token ID.
func (r *OnChainRedeemer) Redeem(ctx context.Context, marketID, yesTokenID, noTokenID string, size float64) error {
	conditionID := common.HexToHash(marketID)

	data, err := r.abi.Pack("redeemPositions",
		common.HexToAddress(redeemUSDCAddress),
		common.Hash{},
		conditionID,
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
	)
	if err != nil {
		return fmt.Errorf("pack redeemPositions call: %w", err)
	}

	nonce, err := r.client.PendingNonceAt(ctx, r.address)
	if err != nil {
		return fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := r.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}

	ctfAddress := common.HexToAddress(ctfContractAddress)
	tx := types.NewTransaction(nonce, ctfAddress, big.NewInt(0), redeemGasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(polygonChainID)), r.privateKey)
	if err != nil {
		return fmt.Errorf("sign redeem tx: %w", err)
	}

	if err := r.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("send redeem tx: %w", err)
	}

	r.logger.Info("redemption-tx-sent",
		zap.String("market-id", marketID),
		zap.String("tx-hash", signedTx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, r.client, signedTx)
	if err != nil {
		return fmt.Errorf("wait for redeem tx: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("redeem tx %s reverted", signedTx.Hash().Hex())
	}

	r.logger.Info("position-redeemed-onchain",
		zap.String("market-id", marketID),
		zap.String("yes-token-id", yesTokenID),
		zap.String("no-token-id", noTokenID),
		zap.Float64("size", size),
		zap.Uint64("gas-used", receipt.GasUsed))

	return nil
}
