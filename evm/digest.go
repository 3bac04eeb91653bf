// Package evm prepares and verifies the payloads a PKP signs: EIP-191
// personal messages, EIP-712 typed data, ERC-2612 permits and
// transactions. The threshold network only ever sees 32-byte digests
// produced here.
package evm

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/types"
)

// MessageDigest computes the EIP-191 personal-sign hash of a message.
func MessageDigest(msg []byte) []byte {
	return accounts.TextHash(msg)
}

// TypedDataDigest computes the EIP-712 hash of structured data.
func TypedDataDigest(td apitypes.TypedData) ([]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, errors.Wrap(err, "error hashing typed data")
	}
	return digest, nil
}

// NormalizeV returns a copy of a 65-byte signature with the recovery id in
// Ethereum's 27/28 form. Signatures straight out of crypto.Sign carry 0/1.
func NormalizeV(sig []byte) []byte {
	out := bytes.Clone(sig)
	if len(out) == 65 && out[64] < 27 {
		out[64] += 27
	}
	return out
}

// RecoverAddress recovers the signer address from a digest and a 65-byte
// signature. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverAddress(digest []byte, sig []byte) (types.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return "", errors.Errorf("expected %d-byte signature, got %d bytes", crypto.SignatureLength, len(sig))
	}
	norm := bytes.Clone(sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	pub, err := crypto.SigToPub(digest, norm)
	if err != nil {
		return "", errors.Wrap(err, "error recovering signer")
	}
	return types.Address(crypto.PubkeyToAddress(*pub).Hex()), nil
}

func matches(recovered types.Address, err error, expected types.Address) bool {
	if err != nil {
		return false
	}
	return common.HexToAddress(string(recovered)) == common.HexToAddress(string(expected))
}

// VerifyMessage reports whether sig is a valid personal-sign signature of
// msg by expected. Malformed input reports false rather than erroring.
func VerifyMessage(msg []byte, sig []byte, expected types.Address) bool {
	recovered, err := RecoverAddress(MessageDigest(msg), sig)
	return matches(recovered, err, expected)
}

// VerifyTypedData reports whether sig is a valid EIP-712 signature of td by
// expected. Malformed input reports false rather than erroring.
func VerifyTypedData(td apitypes.TypedData, sig []byte, expected types.Address) bool {
	digest, err := TypedDataDigest(td)
	if err != nil {
		return false
	}
	recovered, err := RecoverAddress(digest, sig)
	return matches(recovered, err, expected)
}
