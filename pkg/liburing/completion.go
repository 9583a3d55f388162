//go:build linux

package liburing

const (
	IORING_CQE_F_BUFFER uint32 = 1 << iota
	IORING_CQE_F_MORE
	IORING_CQE_F_SOCK_NONEMPTY
	IORING_CQE_F_NOTIF
)

type CompletionQueueEvent struct {
	UserData uint64
	Res      int32
	Flags    uint32
}
