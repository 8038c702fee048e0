package wire

import "fmt"

// Command names as carried in a frame's 12-byte command field.
const (
	CmdVersion    = "version"
	CmdVerack     = "verack"
	CmdAddr       = "addr"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
	CmdGetBlocks  = "getblocks"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdTx         = "tx"
	CmdBlock      = "block"
	CmdGetAddr    = "getaddr"
	CmdMempool    = "mempool"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdReject     = "reject"
	CmdAlert      = "alert"
)

// Decode parses payload according to the message catalog entry named
// by command. Unknown commands return (nil, nil): the frame is
// discarded by the caller without penalty, per spec.
func Decode(command string, payload []byte) (any, error) {
	switch command {
	case CmdVersion:
		return DecodeVersionPayload(payload)
	case CmdVerack:
		return VerackPayload{}, nil
	case CmdAddr:
		return DecodeAddrPayload(payload)
	case CmdInv:
		return DecodeInvPayload(payload)
	case CmdGetData:
		return DecodeGetDataPayload(payload)
	case CmdNotFound:
		return DecodeNotFoundPayload(payload)
	case CmdGetBlocks:
		return DecodeGetBlocksPayload(payload)
	case CmdGetHeaders:
		return DecodeGetHeadersPayload(payload)
	case CmdHeaders:
		return DecodeHeadersPayload(payload)
	case CmdTx:
		return DecodeTxPayload(payload), nil
	case CmdBlock:
		return DecodeBlockPayload(payload), nil
	case CmdGetAddr:
		return GetAddrPayload{}, nil
	case CmdMempool:
		return MempoolPayload{}, nil
	case CmdPing, CmdPong:
		return DecodePingPongPayload(payload)
	case CmdReject:
		return DecodeRejectPayload(payload)
	case CmdAlert:
		return DecodeAlertPayload(payload)
	default:
		return nil, nil
	}
}

// ErrUnknownCommand is returned by callers that choose to treat an
// unrecognized command as an error rather than a silent no-op; wire
// itself never returns it from Decode.
var ErrUnknownCommand = fmt.Errorf("wire: unknown command")
