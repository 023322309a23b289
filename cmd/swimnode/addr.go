package main

import (
	"fmt"
	"strconv"
	"strings"

	"swimcore"
)

// parseNodeID parses a bare node ID like "3".
func parseNodeID(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return uint32(n), nil
}

// parseAddr parses a swimcore.Address in "id:port" form, matching
// Address.String().
func parseAddr(s string) (swimcore.Address, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return swimcore.Address{}, fmt.Errorf("invalid address %q, want id:port", s)
	}
	id, err := parseNodeID(parts[0])
	if err != nil {
		return swimcore.Address{}, err
	}
	port, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
	if err != nil {
		return swimcore.Address{}, fmt.Errorf("invalid port in address %q: %w", s, err)
	}
	return swimcore.Address{ID: id, Port: uint16(port)}, nil
}
