package swimcore

import "fmt"

// Address is a six-byte endpoint: a little-endian 32-bit identifier followed
// by a little-endian 16-bit port. Two addresses are equal iff both fields
// match; there is no notion of ordering.
type Address struct {
	ID   uint32
	Port uint16
}

// Introducer is the one well-known address every joiner bootstraps against.
var Introducer = Address{ID: 1, Port: 0}

// IsIntroducer reports whether a is the cluster's distinguished introducer.
func (a Address) IsIntroducer() bool {
	return a == Introducer
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%d", a.ID, a.Port)
}
