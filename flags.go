package lio

// Flags
// are per-submission modifiers. They are ORed and handed to the ring as one byte.
type Flags uint8

const (
	// FixedFile
	// the fd argument is a slot of the registered file table.
	FixedFile Flags = 1 << 0
	// Drain
	// start only after every earlier submission completed.
	Drain Flags = 1 << 1
	// Link
	// the next prepared operation starts after this one, a failure cancels the rest of the chain.
	Link Flags = 1 << 2
	// HardLink
	// like Link, but the chain continues after a failure.
	HardLink Flags = 1 << 3
	// Async
	// always punt to an async worker.
	Async Flags = 1 << 4
	// SkipSuccess
	// post no completion on success. The pending request then stays in flight until the engine is closed.
	SkipSuccess Flags = 1 << 6
)

func combineFlags(flags []Flags) (f Flags) {
	for _, flag := range flags {
		f |= flag
	}
	return
}
