package domain

import "github.com/google/uuid"

// IdentityKind distinguishes humans from the fallback AI.
type IdentityKind string

const (
	KindHuman IdentityKind = "human"
	KindBot   IdentityKind = "bot"
)

// Identity is a participant. Immutable once constructed.
type Identity struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind IdentityKind `json:"kind"`
}

var botNames = []string{"Alice", "Bob", "Charles"}

// NewHuman mints a human identity with a fresh id.
func NewHuman(name string) Identity {
	return Identity{
		ID:   uuid.NewString(),
		Name: name,
		Kind: KindHuman,
	}
}

// NewBot mints the fallback AI identity. The display name is picked from a
// small fixed pool so the opponent looks like a named player in the UI.
func NewBot() Identity {
	id := uuid.NewString()
	name := botNames[int(id[0])%len(botNames)]
	return Identity{
		ID:   id,
		Name: name,
		Kind: KindBot,
	}
}

func (i Identity) IsBot() bool {
	return i.Kind == KindBot
}
