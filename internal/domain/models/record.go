package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentRecord tracks one artifact from the moment its stage begins.
// Address stays zero until the creation transaction settles and never
// changes afterwards.
type DeploymentRecord struct {
	Artifact        ArtifactName
	ContractName    string
	ConstructorArgs []any  // typed values, nil when restored from a checkpoint
	EncodedArgs     []byte // ABI encoding of ConstructorArgs
	Address         common.Address
	TxHash          common.Hash
	BlockNumber     uint64
	DeployedAt      time.Time
}

// Resolved reports whether the creation transaction has settled
func (r *DeploymentRecord) Resolved() bool {
	return r != nil && r.Address != (common.Address{})
}

// FundingRecord is the settled faucet top-up
type FundingRecord struct {
	Source      ArtifactName
	Destination ArtifactName
	Amount      *big.Int
	TxHash      common.Hash
	BlockNumber uint64
}

// TxKind distinguishes contract creations from calls
type TxKind string

const (
	TxKindCreate TxKind = "create"
	TxKindCall   TxKind = "call"
)

// PendingTx is a submitted transaction whose receipt hasn't been observed.
// The stage that submitted it owns it until settlement.
type PendingTx struct {
	Hash  common.Hash
	Kind  TxKind
	Nonce uint64
	To    *common.Address // nil for creations
}
