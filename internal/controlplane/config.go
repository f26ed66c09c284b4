package controlplane

import "fmt"

// Config names the control-plane endpoint and the credentials presented
// at handshake time (spec.md §6 "Control-plane TCP").
type Config struct {
	Domain  string
	Port    int
	Version int32
	Token   []byte
}

// Addr formats the dial target.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Domain, c.Port)
}
