//go:build linux

package liburing

import (
	"strings"
)

// Setup flags, see io_uring_setup(2).
const (
	// IORING_SETUP_IOPOLL
	// busy-wait for I/O completion, only valid for O_DIRECT files on pollable devices.
	IORING_SETUP_IOPOLL uint32 = 1 << iota
	// IORING_SETUP_SQPOLL
	// a kernel thread polls the submission queue.
	IORING_SETUP_SQPOLL
	// IORING_SETUP_SQ_AFF
	// pin the sq poll thread to sq_thread_cpu, requires IORING_SETUP_SQPOLL.
	IORING_SETUP_SQ_AFF
	// IORING_SETUP_CQSIZE
	// create the completion queue with cq_entries entries.
	IORING_SETUP_CQSIZE
	// IORING_SETUP_CLAMP
	// clamp entries to the kernel maximum instead of failing.
	IORING_SETUP_CLAMP
	// IORING_SETUP_ATTACH_WQ
	// share the async worker backend of the ring given in wq_fd.
	IORING_SETUP_ATTACH_WQ
	// IORING_SETUP_R_DISABLED
	// start the ring disabled, since 5.10.
	IORING_SETUP_R_DISABLED
	// IORING_SETUP_SUBMIT_ALL
	// keep submitting a batch when one request fails, since 5.18.
	IORING_SETUP_SUBMIT_ALL
	// IORING_SETUP_COOP_TASKRUN
	// do not interrupt user space on completion, since 5.19.
	IORING_SETUP_COOP_TASKRUN
	// IORING_SETUP_TASKRUN_FLAG
	// raise IORING_SQ_TASKRUN when completions are pending, since 5.19.
	IORING_SETUP_TASKRUN_FLAG
	IORING_SETUP_SQE128
	IORING_SETUP_CQE32
	// IORING_SETUP_SINGLE_ISSUER
	// only one task submits. The kernel fails other submitters with EEXIST, since 6.0.
	IORING_SETUP_SINGLE_ISSUER
	// IORING_SETUP_DEFER_TASKRUN
	// defer work to io_uring_enter with GETEVENTS, requires SINGLE_ISSUER, since 6.1.
	IORING_SETUP_DEFER_TASKRUN
	IORING_SETUP_NO_MMAP
	IORING_SETUP_REGISTERED_FD_ONLY
	IORING_SETUP_NO_SQARRAY
	IORING_SETUP_HYBRID_IOPOLL
)

// Feature flags reported by the kernel in Params.
const (
	IORING_FEAT_SINGLE_MMAP uint32 = 1 << iota
	IORING_FEAT_NODROP
	IORING_FEAT_SUBMIT_STABLE
	IORING_FEAT_RW_CUR_POS
	IORING_FEAT_CUR_PERSONALITY
	IORING_FEAT_FAST_POLL
	IORING_FEAT_POLL_32BITS
	IORING_FEAT_SQPOLL_NONFIXED
	IORING_FEAT_EXT_ARG
	IORING_FEAT_NATIVE_WORKERS
	IORING_FEAT_RSRC_TAGS
	IORING_FEAT_CQE_SKIP
	IORING_FEAT_LINKED_FILE
	IORING_FEAT_REG_REG_RING
)

var setupFlagNames = map[string]uint32{
	"IORING_SETUP_IOPOLL":             IORING_SETUP_IOPOLL,
	"IORING_SETUP_SQPOLL":             IORING_SETUP_SQPOLL,
	"IORING_SETUP_SQ_AFF":             IORING_SETUP_SQ_AFF,
	"IORING_SETUP_CQSIZE":             IORING_SETUP_CQSIZE,
	"IORING_SETUP_CLAMP":              IORING_SETUP_CLAMP,
	"IORING_SETUP_ATTACH_WQ":          IORING_SETUP_ATTACH_WQ,
	"IORING_SETUP_R_DISABLED":         IORING_SETUP_R_DISABLED,
	"IORING_SETUP_SUBMIT_ALL":         IORING_SETUP_SUBMIT_ALL,
	"IORING_SETUP_COOP_TASKRUN":       IORING_SETUP_COOP_TASKRUN,
	"IORING_SETUP_TASKRUN_FLAG":       IORING_SETUP_TASKRUN_FLAG,
	"IORING_SETUP_SQE128":             IORING_SETUP_SQE128,
	"IORING_SETUP_CQE32":              IORING_SETUP_CQE32,
	"IORING_SETUP_SINGLE_ISSUER":      IORING_SETUP_SINGLE_ISSUER,
	"IORING_SETUP_DEFER_TASKRUN":      IORING_SETUP_DEFER_TASKRUN,
	"IORING_SETUP_NO_MMAP":            IORING_SETUP_NO_MMAP,
	"IORING_SETUP_REGISTERED_FD_ONLY": IORING_SETUP_REGISTERED_FD_ONLY,
	"IORING_SETUP_NO_SQARRAY":         IORING_SETUP_NO_SQARRAY,
	"IORING_SETUP_HYBRID_IOPOLL":      IORING_SETUP_HYBRID_IOPOLL,
}

// ParseSetupFlags
// parses one flag name, or several joined by '|' or ','. Unknown names are ignored.
func ParseSetupFlags(s string) (flags uint32) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
	for _, field := range fields {
		name := strings.ToUpper(strings.TrimSpace(field))
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "IORING_SETUP_") {
			name = "IORING_SETUP_" + name
		}
		flags |= setupFlagNames[name]
	}
	return
}
