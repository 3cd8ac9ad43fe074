package types

// GenesisBlocks constructs the deterministic round-0 sentinel block for
// every authority in committee. Genesis blocks carry no ancestors and no
// transactions; their digest derives solely from (epoch, authority), so
// every honest node computes byte-identical genesis blocks without
// exchanging anything over the network (original_source core.rs's
// genesis construction contract).
func GenesisBlocks(committee *Committee) []*VerifiedBlock {
	blocks := make([]*VerifiedBlock, 0, committee.Size())
	for _, a := range committee.Authorities() {
		body := NewBlockV1(committee.Epoch(), 0, a.Index, 0, nil, nil)
		signed := &SignedBlock{Block: *body}
		envelope, err := signed.Serialize()
		if err != nil {
			panic("types: genesis envelope serialization must not fail: " + err.Error())
		}
		blocks = append(blocks, NewVerifiedBlock(signed, envelope))
	}
	return blocks
}

// GenesisRefs returns the BlockRefs of the committee's genesis blocks, in
// authority order. These are the sole ancestors available to round-1
// proposals.
func GenesisRefs(committee *Committee) []BlockRef {
	blocks := GenesisBlocks(committee)
	refs := make([]BlockRef, len(blocks))
	for i, b := range blocks {
		refs[i] = b.Reference()
	}
	return refs
}
