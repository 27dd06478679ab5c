package enums

import "fmt"

// IdentityKind separates guest shopping identities from registered users.
// Carts and shipping addresses are owned by exactly one kind at a time.
type IdentityKind string

const (
	IdentityKindGuest IdentityKind = "guest"
	IdentityKindUser  IdentityKind = "user"
)

var validIdentityKinds = []IdentityKind{
	IdentityKindGuest,
	IdentityKindUser,
}

func (k IdentityKind) String() string {
	return string(k)
}

func (k IdentityKind) IsValid() bool {
	for _, candidate := range validIdentityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseIdentityKind(value string) (IdentityKind, error) {
	for _, candidate := range validIdentityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid identity kind %q", value)
}
