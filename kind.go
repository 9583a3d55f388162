package lio

// Kind
// of an operation. It decides what Result.Res means and who releases the attached resources.
type Kind uint8

const (
	Nop Kind = iota
	Read
	ReadFixed
	Write
	WriteFixed
	Open
	Close
	Socket
	Connect
	Send
	Recv
	Accept
)

var kindNames = [...]string{
	Nop:        "nop",
	Read:       "read",
	ReadFixed:  "read_fixed",
	Write:      "write",
	WriteFixed: "write_fixed",
	Open:       "open",
	Close:      "close",
	Socket:     "socket",
	Connect:    "connect",
	Send:       "send",
	Recv:       "recv",
	Accept:     "accept",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return "unknown"
}

// returnsFd
// reports whether a non-negative Res is a new descriptor.
func (kind Kind) returnsFd() bool {
	return kind == Open || kind == Socket || kind == Accept
}

// transfersBytes
// reports whether a non-negative Res is a byte count.
func (kind Kind) transfersBytes() bool {
	switch kind {
	case Read, ReadFixed, Write, WriteFixed, Send, Recv:
		return true
	default:
		return false
	}
}
