package chaincfg

// ScryptParams returns a scrypt-PoW coin configuration modeled on
// Litecoin: same N=1024/r=1/p=1 scrypt parameters, a four-year halving
// subsidy schedule, and its own magic/port/address version. It sets
// ProofOfWork to PoWScrypt, but blockchain.Store.AddHeader does not read
// that field: every header's work is checked against its Sha256d hash,
// whatever the coin. It is not wired to any production network.
func ScryptParams() *Params {
	var merkleRoot [32]byte
	copy(merkleRoot[:], mustHex("999dceed1101737fab9a2dbe2523fffafa33232a17c3edf6cfd9976ebabfdd97"))

	return &Params{
		Name:            "litecoin",
		Symbols:         []string{"LTC"},
		Port:            9333,
		ProtocolVersion: 70015,
		Magic:           0xdbb6c0fb,
		AddressVersion:  0x30,
		ScriptAddress:   0x05,
		AlertPublicKey: mustHex("040184710fa689ad5023690c80f3a49c8f13f8d45b8c857fbcbc8bc4a8e4d3e" +
			"b4b10f4d4604fa08dce601aaf0f470216fe1b51850b4acf21b179c45070ac7b03a9"),
		DNSSeeds: []string{
			"dnsseed.litecointools.com",
			"dnsseed.litecoinpool.org",
			"dnsseed.ltc.xurious.com",
			"dnsseed.koin-project.com",
		},
		Genesis: GenesisFields{
			Version:    1,
			MerkleRoot: merkleRoot,
			Timestamp:  1317972665,
			Bits:       0x1e0ffff0,
			Nonce:      2084524493,
		},
		ProofOfWork:  PoWScrypt,
		BlockSubsidy: HalvingSubsidy(50*1e8, 840000),
	}
}
