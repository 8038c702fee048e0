package wire

import (
	"encoding/binary"
	"net"
)

// NetAddr is the on-wire representation of a peer endpoint: a service
// bitfield, a 16-byte IPv6 address (IPv4 addresses are mapped), and a
// big-endian port. Most occurrences carry a leading u32 timestamp; the
// version handshake's address fields omit it.
type NetAddr struct {
	Timestamp uint32
	Services  uint64
	IP        net.IP
	Port      uint16
}

const netAddrBodySize = 8 + 16 + 2 // services + ip + port
const netAddrWithTimeSize = 4 + netAddrBodySize

func mapToV6(ip net.IP) [16]byte {
	var out [16]byte
	v4 := ip.To4()
	if v4 == nil {
		copy(out[:], ip.To16())
		return out
	}
	out[10] = 0xff
	out[11] = 0xff
	copy(out[12:], v4)
	return out
}

func v6ToIP(b [16]byte) net.IP {
	isV4Mapped := true
	for i := 0; i < 10; i++ {
		if b[i] != 0 {
			isV4Mapped = false
			break
		}
	}
	if isV4Mapped && b[10] == 0xff && b[11] == 0xff {
		ip := make(net.IP, 4)
		copy(ip, b[12:16])
		return ip
	}
	ip := make(net.IP, 16)
	copy(ip, b[:])
	return ip
}

// EncodeWithTimestamp serializes a with its leading timestamp field.
func (a NetAddr) EncodeWithTimestamp() []byte {
	buf := make([]byte, netAddrWithTimeSize)
	binary.LittleEndian.PutUint32(buf[0:4], a.Timestamp)
	a.encodeBody(buf[4:])
	return buf
}

// Encode serializes a without a timestamp, as used in the version message.
func (a NetAddr) Encode() []byte {
	buf := make([]byte, netAddrBodySize)
	a.encodeBody(buf)
	return buf
}

func (a NetAddr) encodeBody(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], a.Services)
	v6 := mapToV6(a.IP)
	copy(buf[8:24], v6[:])
	binary.BigEndian.PutUint16(buf[24:26], a.Port)
}

// DecodeNetAddrWithTimestamp decodes a NetAddr including its leading
// timestamp field and returns the bytes consumed.
func DecodeNetAddrWithTimestamp(b []byte) (NetAddr, int, error) {
	if len(b) < netAddrWithTimeSize {
		return NetAddr{}, 0, badFormat("net_addr", "truncated")
	}
	a := NetAddr{Timestamp: binary.LittleEndian.Uint32(b[0:4])}
	body, _, err := decodeNetAddrBody(b[4:])
	if err != nil {
		return NetAddr{}, 0, err
	}
	a.Services = body.Services
	a.IP = body.IP
	a.Port = body.Port
	return a, netAddrWithTimeSize, nil
}

// DecodeNetAddr decodes a timestamp-less NetAddr, as carried in a
// version message's addr_from/addr_recv fields.
func DecodeNetAddr(b []byte) (NetAddr, int, error) {
	return decodeNetAddrBody(b)
}

func decodeNetAddrBody(b []byte) (NetAddr, int, error) {
	if len(b) < netAddrBodySize {
		return NetAddr{}, 0, badFormat("net_addr", "truncated")
	}
	var v6 [16]byte
	copy(v6[:], b[8:24])
	a := NetAddr{
		Services: binary.LittleEndian.Uint64(b[0:8]),
		IP:       v6ToIP(v6),
		Port:     binary.BigEndian.Uint16(b[24:26]),
	}
	return a, netAddrBodySize, nil
}
