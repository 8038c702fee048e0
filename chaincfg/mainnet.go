package chaincfg

// MainNetParams returns Bitcoin mainnet's configuration: this is the
// default coin when none is supplied to serve_forever.
func MainNetParams() *Params {
	var merkleRoot [32]byte
	copy(merkleRoot[:], mustHex("3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a"))

	return &Params{
		Name:            "bitcoin",
		Symbols:         []string{"BTC", "XBT"},
		Port:            8333,
		ProtocolVersion: 70015,
		Magic:           0xd9b4bef9,
		AddressVersion:  0x00,
		ScriptAddress:   0x05,
		AlertPublicKey: mustHex("04fc9702847840aaf195de8442ebecedf5b095cdbb9bc716bda9110971b28a4" +
			"9e0ead8564ff0db22209e0374782c093bb899692d524e9d6a6956e7c5ecbcd68284"),
		DNSSeeds: []string{
			"seed.bitcoin.sipa.be",
			"dnsseed.bluematt.me",
			"dnsseed.bitcoin.dashjr.org",
			"seed.bitcoinstats.com",
			"seed.bitnodes.io",
			"bitseed.xf2.org",
		},
		Genesis: GenesisFields{
			Version:    1,
			MerkleRoot: merkleRoot,
			Timestamp:  1231006505,
			Bits:       0x1d00ffff,
			Nonce:      2083236893,
		},
		ProofOfWork:  PoWSha256d,
		BlockSubsidy: HalvingSubsidy(50*1e8, 210000),
	}
}

// TestNetParams returns a permissive test network sharing mainnet's
// genesis fields but with its own magic, port and address version so
// a node can never confuse the two chains on the wire.
func TestNetParams() *Params {
	p := *MainNetParams()
	p.Name = "testnet"
	p.Port = 18333
	p.Magic = 0x0709110b
	p.AddressVersion = 0x6f
	p.ScriptAddress = 0xc4
	p.Genesis.Bits = 0x1d00ffff
	p.DNSSeeds = []string{
		"testnet-seed.bitcoin.jonasschnelli.ch",
		"seed.tbtc.petertodd.org",
	}
	return &p
}

func mustHex(s string) []byte {
	b, err := decodeHex(s)
	if err != nil {
		panic("chaincfg: invalid hex constant: " + err.Error())
	}
	return b
}
