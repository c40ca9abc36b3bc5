package service

import (
	"fmt"
	"math/rand/v2"
)

// Default names carry six random digits. Collisions are possible and harmless.

func defaultChannelName() string {
	return "Unnamed Channel " + randomDigits()
}

func defaultUserName() string {
	return "Unnamed User #" + randomDigits()
}

func randomDigits() string {
	return fmt.Sprintf("%06d", rand.IntN(1_000_000))
}
