package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// Identity is a long-lived signing keypair plus the address derived from
	// its public key. The private key never leaves this process boundary.
	Identity struct {
		ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
		Name       string             `bson:"name" json:"name"`
		Address    string             `bson:"address" json:"address"`
		PublicKey  []byte             `bson:"public_key" json:"public_key"`
		PrivateKey []byte             `bson:"private_key" json:"-"`
	}
)
