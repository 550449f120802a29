// Package eip712 implements the EIP-712 typed-data signing path used to
// produce Polymarket CTF Exchange order signatures. It mirrors what
// go-order-utils does internally, built directly on go-ethereum's crypto
// primitives so the domain separator can be computed once and cached
// instead of rebuilt on every order.
package eip712

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	domainTypeString = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	orderTypeString  = "Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"
	domainName       = "Polymarket CTF Exchange"
	domainVersion    = "1"
)

var (
	domainTypeHash = crypto.Keccak256([]byte(domainTypeString))
	orderTypeHash  = crypto.Keccak256([]byte(orderTypeString))
	domainNameHash = crypto.Keccak256([]byte(domainName))
	domainVerHash  = crypto.Keccak256([]byte(domainVersion))
)

// Side mirrors the exchange's on-chain uint8 order side.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

// SignatureType mirrors the exchange's on-chain uint8 signature type.
type SignatureType uint8

const (
	SignatureTypeEOA SignatureType = iota
	SignatureTypePolyProxy
	SignatureTypePolyGnosisSafe
)

// Order is the set of fields that make up a CTF Exchange order's struct
// hash, in the same field order as the type string.
type Order struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          Side
	SignatureType SignatureType
}

// DomainSeparator is the cached EIP-712 domain separator for a given chain
// and verifying contract. Computing it requires two Keccak256 calls over
// fixed inputs, so it is computed once in New and reused for every order.
type DomainSeparator struct {
	bytes [32]byte
}

// NewDomainSeparator computes and caches the domain separator for the
// Polymarket CTF Exchange contract on chainID.
func NewDomainSeparator(chainID int64, verifyingContract common.Address) *DomainSeparator {
	buf := make([]byte, 0, 128)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, domainNameHash...)
	buf = append(buf, domainVerHash...)
	buf = append(buf, leftPad32(new(big.Int).SetInt64(chainID))...)
	buf = append(buf, leftPad32(new(big.Int).SetBytes(verifyingContract.Bytes()))...)

	hash := crypto.Keccak256(buf)
	ds := &DomainSeparator{}
	copy(ds.bytes[:], hash)
	return ds
}

func leftPad32(v *big.Int) []byte {
	out := make([]byte, 32)
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

func hashOrderStruct(o Order) []byte {
	buf := make([]byte, 0, 32*13)
	buf = append(buf, orderTypeHash...)
	buf = append(buf, leftPad32(o.Salt)...)
	buf = append(buf, leftPad32(new(big.Int).SetBytes(o.Maker.Bytes()))...)
	buf = append(buf, leftPad32(new(big.Int).SetBytes(o.Signer.Bytes()))...)
	buf = append(buf, leftPad32(new(big.Int).SetBytes(o.Taker.Bytes()))...)
	buf = append(buf, leftPad32(o.TokenID)...)
	buf = append(buf, leftPad32(o.MakerAmount)...)
	buf = append(buf, leftPad32(o.TakerAmount)...)
	buf = append(buf, leftPad32(o.Expiration)...)
	buf = append(buf, leftPad32(o.Nonce)...)
	buf = append(buf, leftPad32(o.FeeRateBps)...)
	buf = append(buf, leftPad32(big.NewInt(int64(o.Side)))...)
	buf = append(buf, leftPad32(big.NewInt(int64(o.SignatureType)))...)
	return crypto.Keccak256(buf)
}

// Digest computes the final EIP-712 digest for an order under this domain:
// keccak256(0x19 0x01 || domainSeparator || structHash).
func (ds *DomainSeparator) Digest(o Order) []byte {
	structHash := hashOrderStruct(o)
	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, ds.bytes[:]...)
	buf = append(buf, structHash...)
	return crypto.Keccak256(buf)
}

// Signer signs orders against a cached domain separator with a single
// private key. Signing is brief and CPU-bound; the mutex exists only to
// serialize access to the key material, not to protect shared state.
type Signer struct {
	mu         sync.Mutex
	privateKey *ecdsa.PrivateKey
	domain     *DomainSeparator
}

// NewSigner builds a Signer for the given private key and pre-computed
// domain separator.
func NewSigner(privateKey *ecdsa.PrivateKey, domain *DomainSeparator) *Signer {
	return &Signer{privateKey: privateKey, domain: domain}
}

// SignOrder produces a 65-byte (r, s, v) hex signature, 0x-prefixed, for
// the given order.
func (s *Signer) SignOrder(o Order) (string, error) {
	digest := s.domain.Digest(o)

	s.mu.Lock()
	sig, err := crypto.Sign(digest, s.privateKey)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("eip712: sign order: %w", err)
	}
	// go-ethereum returns v in {0,1}; the exchange expects the
	// Ethereum-convention {27,28}.
	sig[64] += 27
	return "0x" + common.Bytes2Hex(sig), nil
}
