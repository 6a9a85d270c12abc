// Package validation holds the grammars manifest values are checked against.
package validation

import (
	"regexp"
	"strings"

	"github.com/dstackai/dstack/agent/consts"
)

const (
	ProtocolTCP = "TCP"
	ProtocolUDP = "UDP"
)

var (
	rfc1035Name = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])*$`)
	cToken      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// IsRFC1035Name reports whether name is a DNS label: a lowercase letter
// followed by lowercase letters, digits or hyphens, not ending in a hyphen.
func IsRFC1035Name(name string) bool {
	return rfc1035Name.MatchString(name)
}

// IsCToken reports whether s is a C identifier.
func IsCToken(s string) bool {
	return cToken.MatchString(s)
}

// IsValidPath reports whether path is absolute and at most MaxPathLength long.
func IsValidPath(path string) bool {
	return strings.HasPrefix(path, "/") && len(path) <= consts.MaxPathLength
}

func IsValidPort(port int) bool {
	return port > 0 && port <= 65535
}

// IsValidProtocol is case-sensitive.
func IsValidProtocol(proto string) bool {
	return proto == ProtocolTCP || proto == ProtocolUDP
}

// ProtocolSuffix returns the suffix used in port specs: "/udp" for UDP and
// nothing for TCP.
func ProtocolSuffix(proto string) string {
	if proto == ProtocolUDP {
		return "/udp"
	}
	return ""
}
