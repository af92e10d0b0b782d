package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
)

func NewEd25519Keypair() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

func ED25519Sign(privKeyBytes []byte, message []byte) []byte {
	privKey := ed25519.PrivateKey(privKeyBytes)
	return ed25519.Sign(privKey, message)
}

func ED25519Verify(pubKeyBytes []byte, message []byte, signature []byte) bool {
	pubKey := ed25519.PublicKey(pubKeyBytes)
	return ed25519.Verify(pubKey, message, signature)
}

// ED25519SignHex signs message and returns the signature hex-encoded, the
// form carried on the wire.
func ED25519SignHex(privKeyBytes []byte, message []byte) string {
	return hex.EncodeToString(ED25519Sign(privKeyBytes, message))
}

// ED25519VerifyHex verifies a hex-encoded signature against message.
func ED25519VerifyHex(pubKeyBytes []byte, message []byte, signatureHex string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	return ED25519Verify(pubKeyBytes, message, sig)
}
