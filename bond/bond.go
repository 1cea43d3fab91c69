// Package bond carries a maker's fidelity-bond proof as opaque bytes
// and exposes a narrow signature-verification helper for it. The
// daemon never calls this on the announcement ingestion path: the
// bond's proof is carried, never validated, since proving the
// underlying on-chain time-lock is out of scope here. It is kept as a
// tested building block for a caller that does want to check a
// maker's signature over its own announcement.
package bond

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// ParsePublicKey decodes a compressed or uncompressed secp256k1 public
// key as published alongside a fidelity bond's metadata.
func ParsePublicKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("bond: parse public key: %w", err)
	}
	return pub, nil
}

// VerifySignature checks a DER-encoded secp256k1 signature over msg
// against pubKeyBytes. It returns false (never an error) on any
// malformed input, since a bad proof is just not a proof.
func VerifySignature(pubKeyBytes, sig, msg []byte) bool {
	pub, err := ParsePublicKey(pubKeyBytes)
	if err != nil {
		return false
	}
	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsedSig.Verify(msg, pub)
}
