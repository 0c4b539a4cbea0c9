// internal/auth/guest.go
package auth

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Guest display names are built from two seed lists plus a number, e.g.
// "SwiftBadger42". The subject gets a _GUEST suffix so profiles from real
// providers can never collide with generated ones.
var (
	guestFirst = []string{
		"Swift", "Clever", "Sneaky", "Rapid", "Quiet", "Bold",
		"Lucky", "Dizzy", "Mighty", "Turbo", "Cosmic", "Wandering",
	}
	guestSecond = []string{
		"Badger", "Falcon", "Otter", "Racer", "Llama", "Walrus",
		"Pigeon", "Mole", "Ferret", "Marmot", "Heron", "Newt",
	}
)

// NewGuestIdentity mints a fresh anonymous identity under the guest issuer.
func NewGuestIdentity() Identity {
	name := fmt.Sprintf("%s%s%d",
		guestFirst[rand.Intn(len(guestFirst))],
		guestSecond[rand.Intn(len(guestSecond))],
		rand.Intn(99),
	)
	return Identity{
		Subject:     uuid.NewString() + "_GUEST",
		Provider:    ProviderGuest,
		DisplayName: name,
	}
}
