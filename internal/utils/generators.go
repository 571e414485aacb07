package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GeneratePurchaseID returns a human-greppable purchase id, e.g.
// pur_1735689600_042913.
func GeneratePurchaseID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("pur_%d_%06d", timestamp, randomNum.Int64())
}
