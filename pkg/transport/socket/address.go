package socket

import (
	"fmt"
	"strings"
)

const (
	schemeTCP  = "tcp://"
	schemeUnix = "unix://"
)

// splitAddress maps a target string onto a network and a dial/listen address.
// Accepted forms: "tcp://host:port", "unix:///path/to/sock", and a bare
// "host:port" which defaults to tcp.
func splitAddress(target string) (network, address string, err error) {
	switch {
	case strings.HasPrefix(target, schemeTCP):
		address = strings.TrimPrefix(target, schemeTCP)
		if address == "" {
			return "", "", fmt.Errorf("empty tcp address in target %q", target)
		}
		return "tcp", address, nil
	case strings.HasPrefix(target, schemeUnix):
		address = strings.TrimPrefix(target, schemeUnix)
		if address == "" {
			return "", "", fmt.Errorf("empty socket path in target %q", target)
		}
		return "unix", address, nil
	case strings.Contains(target, "://"):
		return "", "", fmt.Errorf("unsupported scheme in target %q", target)
	case target == "":
		return "", "", fmt.Errorf("empty target")
	default:
		return "tcp", target, nil
	}
}

// TCPTarget builds a tcp target string from host and port.
func TCPTarget(hostPort string) string {
	return schemeTCP + hostPort
}

// UnixTarget builds a unix target string from a socket path.
func UnixTarget(path string) string {
	return schemeUnix + path
}
