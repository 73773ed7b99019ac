package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

// StartAdvertising announces this device's LAN channel on the local network.
// It returns a shutdown function that should be called when advertising is no longer needed.
func StartAdvertising(port int, uuid string) (func(), error) {
	// Instance name: "Tether-<Hash[:8]>"
	uuidHash := ComputeHash(uuid)
	instanceName := fmt.Sprintf("Tether-%s", uuidHash[:8])

	// TXT record holds the full hash for the peer to verify
	txt := []string{fmt.Sprintf("hash=%s", uuidHash)}

	server, err := zeroconf.Register(
		instanceName,
		ServiceType,
		"local.",
		port,
		txt,
		nil, // Check all interfaces
	)
	if err != nil {
		return nil, err
	}

	return server.Shutdown, nil
}
