// Package identity owns the client's long-lived signing keypair and the
// address derived from it.
package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"agent_chat/internal/cryptographic/signature"
	"agent_chat/internal/model"
	"agent_chat/internal/utils/log"

	"go.uber.org/zap"
)

// AddressPrefix is prepended to the hex-encoded public key.
const AddressPrefix = "0x"

// ErrCryptoFailure means the identity's key material is absent or corrupt.
// A send must never go out unsigned, so callers abort on it.
var ErrCryptoFailure = errors.New("identity key material is missing or corrupt")

type (
	// Store persists identities. The mongo-backed implementation lives in
	// internal/repository/identity.
	Store interface {
		GetByName(ctx context.Context, name string) (*model.Identity, error)
		Create(ctx context.Context, identity *model.Identity) error
	}

	// Provider exposes the identity's address and signing operation. The
	// private key never leaves this package.
	Provider struct {
		identity *model.Identity
	}
)

// LoadOrGenerate returns the persisted identity for name, generating and
// persisting a fresh keypair if none exists yet.
func LoadOrGenerate(ctx context.Context, store Store, name string) (*Provider, error) {
	id, err := store.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	if id == nil {
		pub, priv, err := signature.NewEd25519Keypair()
		if err != nil {
			return nil, fmt.Errorf("generate keypair: %w", err)
		}

		id = &model.Identity{
			Name:       name,
			Address:    DeriveAddress(pub),
			PublicKey:  pub,
			PrivateKey: priv,
		}
		if err := store.Create(ctx, id); err != nil {
			return nil, fmt.Errorf("persist identity: %w", err)
		}
		log.Info("generated new identity", zap.String("address", id.Address))
	}

	return &Provider{identity: id}, nil
}

// New wraps an already-loaded identity, e.g. in tests.
func New(id *model.Identity) *Provider {
	return &Provider{identity: id}
}

// DeriveAddress maps a public key to its wire address.
func DeriveAddress(pub []byte) string {
	return AddressPrefix + hex.EncodeToString(pub)
}

func (p *Provider) Address() string {
	return p.identity.Address
}

func (p *Provider) PublicKey() []byte {
	return p.identity.PublicKey
}

// Sign returns the hex-encoded ed25519 signature over the UTF-8 bytes of
// message. Deterministic for the same message and key.
func (p *Provider) Sign(message string) (string, error) {
	if len(p.identity.PrivateKey) != ed25519.PrivateKeySize {
		return "", ErrCryptoFailure
	}
	return signature.ED25519SignHex(p.identity.PrivateKey, []byte(message)), nil
}
