package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionPayloadRoundTrip(t *testing.T) {
	v := VersionPayload{
		ProtocolVersion: 70015,
		Services:        1,
		Timestamp:       1_700_000_000,
		AddrRecv:        NetAddr{Services: 1, IP: net.ParseIP("1.1.1.1"), Port: 8333},
		AddrFrom:        NetAddr{Services: 1, IP: net.ParseIP("2.2.2.2"), Port: 8333},
		Nonce:           0xdeadbeefcafebabe,
		UserAgent:       "/fullnode:0.1.0/",
		StartHeight:     700000,
		Relay:           true,
	}
	enc, err := v.Encode()
	require.NoError(t, err)

	got, err := DecodeVersionPayload(enc)
	require.NoError(t, err)
	require.Equal(t, v.ProtocolVersion, got.ProtocolVersion)
	require.Equal(t, v.Services, got.Services)
	require.Equal(t, v.Timestamp, got.Timestamp)
	require.Equal(t, v.Nonce, got.Nonce)
	require.Equal(t, v.UserAgent, got.UserAgent)
	require.Equal(t, v.StartHeight, got.StartHeight)
	require.Equal(t, v.Relay, got.Relay)
	require.True(t, v.AddrRecv.IP.Equal(got.AddrRecv.IP))
}

func TestVersionPayloadRejectsOverlongUserAgent(t *testing.T) {
	v := VersionPayload{UserAgent: string(make([]byte, maxUserAgentBytes+1))}
	_, err := v.Encode()
	require.Error(t, err)
}

func TestAddrPayloadRoundTripAndCap(t *testing.T) {
	p := AddrPayload{Addrs: []NetAddr{
		{Services: 1, IP: net.ParseIP("10.0.0.1"), Port: 1},
		{Services: 1, IP: net.ParseIP("10.0.0.2"), Port: 2},
	}}
	enc, err := p.Encode()
	require.NoError(t, err)
	got, err := DecodeAddrPayload(enc)
	require.NoError(t, err)
	require.Len(t, got.Addrs, 2)

	tooMany := AddrPayload{Addrs: make([]NetAddr, maxAddrEntries+1)}
	_, err = tooMany.Encode()
	require.Error(t, err)
}

func TestInvPayloadRoundTripAndCap(t *testing.T) {
	p := InvPayload{Inventory: []InvVector{{Type: 1, Hash: [32]byte{1}}, {Type: 2, Hash: [32]byte{2}}}}
	enc, err := p.Encode()
	require.NoError(t, err)
	got, err := DecodeInvPayload(enc)
	require.NoError(t, err)
	require.Equal(t, p.Inventory, got.Inventory)

	tooMany := InvPayload{Inventory: make([]InvVector, maxInvEntries+1)}
	_, err = tooMany.Encode()
	require.Error(t, err)
}

func TestGetHeadersPayloadRequiresNonEmptyLocator(t *testing.T) {
	p := GetHeadersPayload{ProtocolVersion: 1, BlockLocatorHashes: nil}
	_, err := p.Encode()
	require.Error(t, err)

	ok := GetHeadersPayload{ProtocolVersion: 1, BlockLocatorHashes: [][32]byte{{1}}}
	enc, err := ok.Encode()
	require.NoError(t, err)
	got, err := DecodeGetHeadersPayload(enc)
	require.NoError(t, err)
	require.Len(t, got.BlockLocatorHashes, 1)
	require.Equal(t, ok.HashStop, got.HashStop)
}

func TestHeadersPayloadRoundTrip(t *testing.T) {
	var h [80]byte
	h[0] = 1
	p := HeadersPayload{Headers: []BlockHeaderWithTxnCount{{Header: h, TxnCount: 0}}}
	enc, err := p.Encode()
	require.NoError(t, err)
	got, err := DecodeHeadersPayload(enc)
	require.NoError(t, err)
	require.Len(t, got.Headers, 1)
	require.Equal(t, h, got.Headers[0].Header)
	require.Equal(t, CompactSize(0), got.Headers[0].TxnCount)
}

func TestPingPongPayloadRoundTrip(t *testing.T) {
	p := PingPongPayload{Nonce: 0x0102030405060708}
	enc := p.Encode()
	require.Len(t, enc, 8)
	got, err := DecodePingPongPayload(enc)
	require.NoError(t, err)
	require.Equal(t, p.Nonce, got.Nonce)

	_, err = DecodePingPongPayload([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestRejectPayloadRoundTrip(t *testing.T) {
	p := RejectPayload{Message: "block", CCode: 0x10, Reason: "bad-pow"}
	enc, err := p.Encode()
	require.NoError(t, err)
	got, err := DecodeRejectPayload(enc)
	require.NoError(t, err)
	require.Equal(t, p, *got)
}

func TestAlertPayloadLazyDecode(t *testing.T) {
	details := AlertDetails{
		ID:         1,
		Cancel:     0,
		MinVersion: 1,
		MaxVersion: 70015,
		Priority:   100,
		Comment:    "",
		StatusBar:  "urgent: upgrade",
	}
	inner := details.Encode()
	envelope := AlertPayload{Payload: inner, Signature: []byte{0xde, 0xad}}
	enc := envelope.Encode()

	got, err := DecodeAlertPayload(enc)
	require.NoError(t, err)
	require.Equal(t, envelope.Signature, got.Signature)

	decodedDetails, err := DecodeAlertDetails(got.Payload)
	require.NoError(t, err)
	require.Equal(t, details.StatusBar, decodedDetails.StatusBar)
	require.Equal(t, details.MaxVersion, decodedDetails.MaxVersion)
}

func TestDecodeDispatchUnknownCommandIsSilent(t *testing.T) {
	v, err := Decode("totally-unknown", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestDecodeDispatchKnownCommand(t *testing.T) {
	v, err := Decode(CmdPing, PingPongPayload{Nonce: 7}.Encode())
	require.NoError(t, err)
	pp, ok := v.(*PingPongPayload)
	require.True(t, ok)
	require.Equal(t, uint64(7), pp.Nonce)
}
