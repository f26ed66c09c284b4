package lanpackets

import "fmt"

func errShortPacket(name string, want, got int) error {
	return fmt.Errorf("%s packet too short: got %d, want at least %d", name, got, want)
}
