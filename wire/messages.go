package wire

import (
	"encoding/binary"
	"unicode/utf8"
)

const (
	maxAddrEntries    = 1000
	maxInvEntries     = 50000
	maxUserAgentBytes = 256
	maxHeadersEntries = 2000
)

// Inventory item type tags carried in an InvVector.
const (
	InvTypeError = 0
	InvTypeTx    = 1
	InvTypeBlock = 2
)

// InvVector identifies a single inventory item carried in inv, getdata
// and notfound payloads.
type InvVector struct {
	Type uint32
	Hash [32]byte
}

func encodeInvVector(v InvVector) []byte {
	buf := make([]byte, 36)
	binary.LittleEndian.PutUint32(buf[0:4], v.Type)
	copy(buf[4:36], v.Hash[:])
	return buf
}

func decodeInvVector(b []byte) (InvVector, error) {
	if len(b) < 36 {
		return InvVector{}, badFormat("inv_vector", "truncated")
	}
	var v InvVector
	v.Type = binary.LittleEndian.Uint32(b[0:4])
	copy(v.Hash[:], b[4:36])
	return v, nil
}

// VersionPayload is the handshake's initial message: our protocol
// version, services, the counterparty's observed address, our own
// claimed external address, an anti-loopback nonce, a user-agent
// string, our chain height, and a relay preference.
type VersionPayload struct {
	ProtocolVersion uint32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddr
	AddrFrom        NetAddr
	Nonce           uint64
	UserAgent       string
	StartHeight     uint32
	Relay           bool
}

func (v VersionPayload) Encode() ([]byte, error) {
	if len(v.UserAgent) > maxUserAgentBytes {
		return nil, badFormat("user_agent", "exceeds max length")
	}
	if !utf8.ValidString(v.UserAgent) {
		return nil, badFormat("user_agent", "not valid UTF-8")
	}
	out := make([]byte, 0, 4+8+8+26+26+8+9+len(v.UserAgent)+4+1)
	var tmp4 [4]byte
	var tmp8 [8]byte

	binary.LittleEndian.PutUint32(tmp4[:], v.ProtocolVersion)
	out = append(out, tmp4[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], v.Services)
	out = append(out, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], uint64(v.Timestamp))
	out = append(out, tmp8[:]...)
	out = append(out, v.AddrRecv.Encode()...)
	out = append(out, v.AddrFrom.Encode()...)
	binary.LittleEndian.PutUint64(tmp8[:], v.Nonce)
	out = append(out, tmp8[:]...)
	out = append(out, WriteVarBytes([]byte(v.UserAgent))...)
	binary.LittleEndian.PutUint32(tmp4[:], v.StartHeight)
	out = append(out, tmp4[:]...)
	if v.Relay {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

func DecodeVersionPayload(b []byte) (*VersionPayload, error) {
	const fixedHead = 4 + 8 + 8
	if len(b) < fixedHead+netAddrBodySize*2+8 {
		return nil, badFormat("version", "truncated")
	}
	off := 0
	v := &VersionPayload{}
	v.ProtocolVersion = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	v.Services = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	v.Timestamp = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8

	recv, n, err := DecodeNetAddr(b[off:])
	if err != nil {
		return nil, err
	}
	v.AddrRecv = recv
	off += n

	from, n, err := DecodeNetAddr(b[off:])
	if err != nil {
		return nil, err
	}
	v.AddrFrom = from
	off += n

	if len(b) < off+8 {
		return nil, badFormat("version", "truncated before nonce")
	}
	v.Nonce = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8

	ua, n, err := ReadVarBytes(b[off:], maxUserAgentBytes, "user_agent")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(ua) {
		return nil, badFormat("user_agent", "not valid UTF-8")
	}
	v.UserAgent = string(ua)
	off += n

	if len(b) < off+4+1 {
		return nil, badFormat("version", "truncated tail")
	}
	v.StartHeight = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	switch b[off] {
	case 0:
		v.Relay = false
	case 1:
		v.Relay = true
	default:
		return nil, badFormat("relay", "must be 0 or 1")
	}
	off++
	if off != len(b) {
		return nil, badFormat("version", "trailing bytes")
	}
	return v, nil
}

// VerackPayload carries no data.
type VerackPayload struct{}

func (VerackPayload) Encode() []byte { return nil }

// AddrPayload is a list of timestamped network addresses, bounded at
// maxAddrEntries.
type AddrPayload struct {
	Addrs []NetAddr
}

func (p AddrPayload) Encode() ([]byte, error) {
	if len(p.Addrs) > maxAddrEntries {
		return nil, badFormat("addrs", "exceeds max entries")
	}
	out := CompactSize(len(p.Addrs)).Encode()
	for _, a := range p.Addrs {
		out = append(out, a.EncodeWithTimestamp()...)
	}
	return out, nil
}

func DecodeAddrPayload(b []byte) (*AddrPayload, error) {
	count, used, err := DecodeCompactSize(b)
	if err != nil {
		return nil, err
	}
	if uint64(count) > maxAddrEntries {
		return nil, badFormat("addrs", "exceeds max entries")
	}
	p := &AddrPayload{Addrs: make([]NetAddr, 0, count)}
	off := used
	for i := uint64(0); i < uint64(count); i++ {
		a, n, err := DecodeNetAddrWithTimestamp(b[off:])
		if err != nil {
			return nil, err
		}
		p.Addrs = append(p.Addrs, a)
		off += n
	}
	if off != len(b) {
		return nil, badFormat("addrs", "trailing bytes")
	}
	return p, nil
}

// invLikePayload is the shared shape of inv, getdata and notfound.
type invLikePayload struct {
	Inventory []InvVector
}

func encodeInvLike(p invLikePayload, field string) ([]byte, error) {
	if len(p.Inventory) > maxInvEntries {
		return nil, badFormat(field, "exceeds max entries")
	}
	out := CompactSize(len(p.Inventory)).Encode()
	for _, v := range p.Inventory {
		out = append(out, encodeInvVector(v)...)
	}
	return out, nil
}

func decodeInvLike(b []byte, field string) (invLikePayload, error) {
	count, used, err := DecodeCompactSize(b)
	if err != nil {
		return invLikePayload{}, err
	}
	if uint64(count) > maxInvEntries {
		return invLikePayload{}, badFormat(field, "exceeds max entries")
	}
	out := invLikePayload{Inventory: make([]InvVector, 0, count)}
	off := used
	for i := uint64(0); i < uint64(count); i++ {
		if len(b) < off+36 {
			return invLikePayload{}, badFormat(field, "truncated")
		}
		v, err := decodeInvVector(b[off : off+36])
		if err != nil {
			return invLikePayload{}, err
		}
		out.Inventory = append(out.Inventory, v)
		off += 36
	}
	if off != len(b) {
		return invLikePayload{}, badFormat(field, "trailing bytes")
	}
	return out, nil
}

type InvPayload struct{ Inventory []InvVector }

func (p InvPayload) Encode() ([]byte, error) { return encodeInvLike(invLikePayload(p), "inv") }
func DecodeInvPayload(b []byte) (*InvPayload, error) {
	l, err := decodeInvLike(b, "inv")
	if err != nil {
		return nil, err
	}
	return &InvPayload{Inventory: l.Inventory}, nil
}

type GetDataPayload struct{ Inventory []InvVector }

func (p GetDataPayload) Encode() ([]byte, error) { return encodeInvLike(invLikePayload(p), "getdata") }
func DecodeGetDataPayload(b []byte) (*GetDataPayload, error) {
	l, err := decodeInvLike(b, "getdata")
	if err != nil {
		return nil, err
	}
	return &GetDataPayload{Inventory: l.Inventory}, nil
}

type NotFoundPayload struct{ Inventory []InvVector }

func (p NotFoundPayload) Encode() ([]byte, error) {
	return encodeInvLike(invLikePayload(p), "notfound")
}
func DecodeNotFoundPayload(b []byte) (*NotFoundPayload, error) {
	l, err := decodeInvLike(b, "notfound")
	if err != nil {
		return nil, err
	}
	return &NotFoundPayload{Inventory: l.Inventory}, nil
}

// locatorLikePayload is the shared shape of getblocks and getheaders:
// a protocol version, a dense-to-sparse block locator, and a stop hash.
type locatorLikePayload struct {
	ProtocolVersion   uint32
	BlockLocatorHashes [][32]byte
	HashStop          [32]byte
}

func encodeLocatorLike(p locatorLikePayload, field string) ([]byte, error) {
	if len(p.BlockLocatorHashes) < 1 {
		return nil, badFormat(field, "locator must carry at least one hash")
	}
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, p.ProtocolVersion)
	out = append(out, CompactSize(len(p.BlockLocatorHashes)).Encode()...)
	for _, h := range p.BlockLocatorHashes {
		out = append(out, h[:]...)
	}
	out = append(out, p.HashStop[:]...)
	return out, nil
}

func decodeLocatorLike(b []byte, field string) (locatorLikePayload, error) {
	if len(b) < 4 {
		return locatorLikePayload{}, badFormat(field, "truncated")
	}
	var p locatorLikePayload
	p.ProtocolVersion = binary.LittleEndian.Uint32(b[0:4])
	count, used, err := DecodeCompactSize(b[4:])
	if err != nil {
		return locatorLikePayload{}, err
	}
	if count < 1 {
		return locatorLikePayload{}, badFormat(field, "locator must carry at least one hash")
	}
	off := 4 + used
	p.BlockLocatorHashes = make([][32]byte, 0, count)
	for i := uint64(0); i < uint64(count); i++ {
		if len(b) < off+32 {
			return locatorLikePayload{}, badFormat(field, "truncated locator hash")
		}
		var h [32]byte
		copy(h[:], b[off:off+32])
		p.BlockLocatorHashes = append(p.BlockLocatorHashes, h)
		off += 32
	}
	if len(b) < off+32 {
		return locatorLikePayload{}, badFormat(field, "truncated hash_stop")
	}
	copy(p.HashStop[:], b[off:off+32])
	off += 32
	if off != len(b) {
		return locatorLikePayload{}, badFormat(field, "trailing bytes")
	}
	return p, nil
}

type GetBlocksPayload struct {
	ProtocolVersion    uint32
	BlockLocatorHashes [][32]byte
	HashStop           [32]byte
}

func (p GetBlocksPayload) Encode() ([]byte, error) {
	return encodeLocatorLike(locatorLikePayload(p), "getblocks")
}
func DecodeGetBlocksPayload(b []byte) (*GetBlocksPayload, error) {
	l, err := decodeLocatorLike(b, "getblocks")
	if err != nil {
		return nil, err
	}
	out := GetBlocksPayload(l)
	return &out, nil
}

type GetHeadersPayload struct {
	ProtocolVersion    uint32
	BlockLocatorHashes [][32]byte
	HashStop           [32]byte
}

func (p GetHeadersPayload) Encode() ([]byte, error) {
	return encodeLocatorLike(locatorLikePayload(p), "getheaders")
}
func DecodeGetHeadersPayload(b []byte) (*GetHeadersPayload, error) {
	l, err := decodeLocatorLike(b, "getheaders")
	if err != nil {
		return nil, err
	}
	out := GetHeadersPayload(l)
	return &out, nil
}

// BlockHeaderWithTxnCount is a single entry of a headers payload: the
// 80-byte header plus a varint transaction count (always 0 in
// practice, carried for protocol fidelity).
type BlockHeaderWithTxnCount struct {
	Header   [80]byte
	TxnCount CompactSize
}

type HeadersPayload struct {
	Headers []BlockHeaderWithTxnCount
}

func (p HeadersPayload) Encode() ([]byte, error) {
	if len(p.Headers) > maxHeadersEntries {
		return nil, badFormat("headers", "exceeds max entries")
	}
	out := CompactSize(len(p.Headers)).Encode()
	for _, h := range p.Headers {
		out = append(out, h.Header[:]...)
		out = append(out, h.TxnCount.Encode()...)
	}
	return out, nil
}

func DecodeHeadersPayload(b []byte) (*HeadersPayload, error) {
	count, used, err := DecodeCompactSize(b)
	if err != nil {
		return nil, err
	}
	if uint64(count) > maxHeadersEntries {
		return nil, badFormat("headers", "exceeds max entries")
	}
	p := &HeadersPayload{Headers: make([]BlockHeaderWithTxnCount, 0, count)}
	off := used
	for i := uint64(0); i < uint64(count); i++ {
		if len(b) < off+80 {
			return nil, badFormat("headers", "truncated header")
		}
		var h BlockHeaderWithTxnCount
		copy(h.Header[:], b[off:off+80])
		off += 80
		n, consumed, err := DecodeCompactSize(b[off:])
		if err != nil {
			return nil, err
		}
		h.TxnCount = n
		off += consumed
		p.Headers = append(p.Headers, h)
	}
	if off != len(b) {
		return nil, badFormat("headers", "trailing bytes")
	}
	return p, nil
}

// TxPayload and BlockPayload carry opaque serialized forms; their
// internal structure is decoded by the txscript/blockchain layer, not
// here — wire only frames and length-checks.
type TxPayload struct {
	Raw []byte
}

func (p TxPayload) Encode() []byte { return p.Raw }
func DecodeTxPayload(b []byte) *TxPayload {
	return &TxPayload{Raw: append([]byte(nil), b...)}
}

type BlockPayload struct {
	Raw []byte
}

func (p BlockPayload) Encode() []byte { return p.Raw }
func DecodeBlockPayload(b []byte) *BlockPayload {
	return &BlockPayload{Raw: append([]byte(nil), b...)}
}

type GetAddrPayload struct{}

func (GetAddrPayload) Encode() []byte { return nil }

type MempoolPayload struct{}

func (MempoolPayload) Encode() []byte { return nil }

// PingPongPayload carries the 8-byte liveness nonce shared by ping and
// pong.
type PingPongPayload struct {
	Nonce uint64
}

func (p PingPongPayload) Encode() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, p.Nonce)
	return buf
}

func DecodePingPongPayload(b []byte) (*PingPongPayload, error) {
	if len(b) != 8 {
		return nil, badFormat("nonce", "must be exactly 8 bytes")
	}
	return &PingPongPayload{Nonce: binary.LittleEndian.Uint64(b)}, nil
}

// RejectPayload explains why a peer refused a prior message.
type RejectPayload struct {
	Message string
	CCode   byte
	Reason  string
}

func (p RejectPayload) Encode() ([]byte, error) {
	out := WriteVarBytes([]byte(p.Message))
	out = append(out, p.CCode)
	out = append(out, WriteVarBytes([]byte(p.Reason))...)
	return out, nil
}

func DecodeRejectPayload(b []byte) (*RejectPayload, error) {
	msg, used, err := ReadVarBytes(b, 12, "message")
	if err != nil {
		return nil, err
	}
	off := used
	if len(b) < off+1 {
		return nil, badFormat("ccode", "truncated")
	}
	ccode := b[off]
	off++
	reason, used2, err := ReadVarBytes(b[off:], 256, "reason")
	if err != nil {
		return nil, err
	}
	off += used2
	if off != len(b) {
		return nil, badFormat("reject", "trailing bytes")
	}
	return &RejectPayload{Message: string(msg), CCode: ccode, Reason: string(reason)}, nil
}

// AlertPayload is a signed envelope wrapping a serialized inner
// structure. The inner structure is decoded lazily, only after the
// signature over Payload has been verified by the caller.
type AlertPayload struct {
	Payload   []byte
	Signature []byte
}

func (p AlertPayload) Encode() []byte {
	out := WriteVarBytes(p.Payload)
	out = append(out, WriteVarBytes(p.Signature)...)
	return out
}

func DecodeAlertPayload(b []byte) (*AlertPayload, error) {
	payload, used, err := ReadVarBytes(b, 1<<20, "payload")
	if err != nil {
		return nil, err
	}
	off := used
	sig, used2, err := ReadVarBytes(b[off:], 256, "signature")
	if err != nil {
		return nil, err
	}
	off += used2
	if off != len(b) {
		return nil, badFormat("alert", "trailing bytes")
	}
	return &AlertPayload{Payload: payload, Signature: sig}, nil
}

// AlertDetails is the nested structure inside an alert's Payload,
// decoded only after signature verification succeeds.
type AlertDetails struct {
	ID          int32
	Cancel      int32
	SetCancel   []int32
	MinVersion  int32
	MaxVersion  int32
	SetSubVer   []string
	Priority    int32
	Comment     string
	StatusBar   string
}

func (d AlertDetails) Encode() []byte {
	var out []byte
	var tmp4 [4]byte
	putI32 := func(v int32) {
		binary.LittleEndian.PutUint32(tmp4[:], uint32(v))
		out = append(out, tmp4[:]...)
	}
	putI32(d.ID)
	putI32(d.Cancel)
	out = append(out, CompactSize(len(d.SetCancel)).Encode()...)
	for _, c := range d.SetCancel {
		putI32(c)
	}
	putI32(d.MinVersion)
	putI32(d.MaxVersion)
	out = append(out, CompactSize(len(d.SetSubVer)).Encode()...)
	for _, sv := range d.SetSubVer {
		out = append(out, WriteVarBytes([]byte(sv))...)
	}
	putI32(d.Priority)
	out = append(out, WriteVarBytes([]byte(d.Comment))...)
	out = append(out, WriteVarBytes([]byte(d.StatusBar))...)
	return out
}

func DecodeAlertDetails(b []byte) (*AlertDetails, error) {
	readI32 := func(off int) (int32, int, error) {
		if len(b) < off+4 {
			return 0, 0, badFormat("alert_details", "truncated i32")
		}
		return int32(binary.LittleEndian.Uint32(b[off : off+4])), 4, nil
	}
	off := 0
	d := &AlertDetails{}
	var err error
	if d.ID, _, err = readI32(off); err != nil {
		return nil, err
	}
	off += 4
	if d.Cancel, _, err = readI32(off); err != nil {
		return nil, err
	}
	off += 4
	n, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return nil, err
	}
	off += used
	for i := uint64(0); i < uint64(n); i++ {
		var v int32
		if v, _, err = readI32(off); err != nil {
			return nil, err
		}
		d.SetCancel = append(d.SetCancel, v)
		off += 4
	}
	if d.MinVersion, _, err = readI32(off); err != nil {
		return nil, err
	}
	off += 4
	if d.MaxVersion, _, err = readI32(off); err != nil {
		return nil, err
	}
	off += 4
	n, used, err = DecodeCompactSize(b[off:])
	if err != nil {
		return nil, err
	}
	off += used
	for i := uint64(0); i < uint64(n); i++ {
		sv, used, err := ReadVarBytes(b[off:], 256, "sub_ver")
		if err != nil {
			return nil, err
		}
		d.SetSubVer = append(d.SetSubVer, string(sv))
		off += used
	}
	if d.Priority, _, err = readI32(off); err != nil {
		return nil, err
	}
	off += 4
	comment, used, err := ReadVarBytes(b[off:], 4096, "comment")
	if err != nil {
		return nil, err
	}
	d.Comment = string(comment)
	off += used
	statusBar, used, err := ReadVarBytes(b[off:], 4096, "status_bar")
	if err != nil {
		return nil, err
	}
	d.StatusBar = string(statusBar)
	off += used
	if off != len(b) {
		return nil, badFormat("alert_details", "trailing bytes")
	}
	return d, nil
}
