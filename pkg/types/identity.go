package types

import (
	"fmt"

	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// Identity is the owner key for carts and shipping addresses. It is a tagged
// pair rather than a bare string so a guest id can never be mistaken for a
// registered user id.
type Identity struct {
	Kind enums.IdentityKind
	ID   uuid.UUID
}

// Guest builds a guest identity.
func Guest(id uuid.UUID) Identity {
	return Identity{Kind: enums.IdentityKindGuest, ID: id}
}

// User builds a registered-user identity.
func User(id uuid.UUID) Identity {
	return Identity{Kind: enums.IdentityKindUser, ID: id}
}

// IsGuest reports whether the identity belongs to an anonymous session.
func (i Identity) IsGuest() bool {
	return i.Kind == enums.IdentityKindGuest
}

// IsZero reports whether the identity has been populated.
func (i Identity) IsZero() bool {
	return i.ID == uuid.Nil
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.ID)
}
