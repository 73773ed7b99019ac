package discovery

import (
	"crypto/sha256"
	"fmt"
)

// ServiceType is the mDNS service type for the LAN fast path
const ServiceType = "_tether._tcp"

// ComputeHash returns the SHA256 hash of the device uuid for broadcast
// verification. The uuid itself never goes on the wire in clear.
func ComputeHash(uuid string) string {
	sum := sha256.Sum256([]byte(uuid))
	return fmt.Sprintf("%x", sum)
}
