package operation

import "github.com/lw64/graphdoc/hash"

// WithMeta pairs an Operation with the metadata its transport layer
// computed: the operation's own content address, its author's public key,
// and its schema hash (redundant with Operation.Schema, kept separately
// because the transport may validate it independently before the builder
// ever sees the operation). This is the producer interface the
// DocumentBuilder consumes; the transport is responsible for signature
// verification and hash-chain integrity, and the builder assumes those
// invariants hold.
type WithMeta struct {
	Operation   Operation
	OperationID hash.Hash
	PublicKey   string
	Schema      hash.Hash
}

// ID returns the operation's content address, the key it is stored under
// in a Graph.
func (w WithMeta) ID() hash.Hash { return w.OperationID }
