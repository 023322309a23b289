package swimcore

import (
	"context"

	"swimcore/wire"
)

// introduce decides whether n is the cluster's distinguished introducer or
// a joiner. The introducer enters the group immediately with nothing but
// itself in its table; a joiner sends one JOINREQ and waits for a JOINREP
// to flip inGroup — introduce itself always succeeds, regardless of
// whether that send is ever actually delivered.
func (n *Node) introduce(ctx context.Context, joinAddr Address) {
	if n.addr == joinAddr {
		n.inGroup = true
		n.logger.Log(n.addr, "group started")
		return
	}

	msg := wire.Message{
		Type:    wire.JoinReq,
		Entries: []wire.EntryRecord{recordFromEntry(*n.table.Self())},
	}
	n.sendTo(ctx, joinAddr, msg)
}
