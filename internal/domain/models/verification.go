package models

import "github.com/ethereum/go-ethereum/common"

// VerificationStatus is the explorer's answer for one artifact
type VerificationStatus string

const (
	VerificationStatusVerified        VerificationStatus = "verified"
	VerificationStatusAlreadyVerified VerificationStatus = "already_verified"
	VerificationStatusRejected        VerificationStatus = "rejected"
)

// VerificationRequest is submitted once per deployed artifact after the
// finality barrier.
type VerificationRequest struct {
	Artifact    ArtifactName
	Address     common.Address
	EncodedArgs []byte
	ChainID     uint64
	Source      *SourceBundle
}

// VerificationOutcome records how the explorer handled a request
type VerificationOutcome struct {
	Status VerificationStatus `json:"status"`
	Reason string             `json:"reason,omitempty"`
	GUID   string             `json:"guid,omitempty"`
	URL    string             `json:"url,omitempty"`
}

// Succeeded is true for verified and already-verified outcomes
func (o *VerificationOutcome) Succeeded() bool {
	return o != nil && (o.Status == VerificationStatusVerified || o.Status == VerificationStatusAlreadyVerified)
}

// Rejected builds a rejected outcome
func Rejected(reason string) *VerificationOutcome {
	return &VerificationOutcome{Status: VerificationStatusRejected, Reason: reason}
}
