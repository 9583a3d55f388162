package lio

// FixedBuffer
// is a registered buffer, addressed by the kernel through its index.
// It belongs to the registry and is never released by a completion.
type FixedBuffer struct {
	index int
	buf   *Buffer
}

func (fb *FixedBuffer) Index() int {
	return fb.index
}

func (fb *FixedBuffer) Bytes() []byte {
	return fb.buf.Bytes()
}

func (fb *FixedBuffer) Len() int {
	return fb.buf.Len()
}

// FixedFiles
// maps each registered path to its slot in the fixed file table.
type FixedFiles struct {
	slots map[string]int
	paths []string
	fds   []int
}

// Slot
// returns the fixed slot of path, usable as fd together with FixedFile.
func (ff *FixedFiles) Slot(path string) (int, bool) {
	slot, ok := ff.slots[path]
	return slot, ok
}

// Path
// returns the path registered at slot.
func (ff *FixedFiles) Path(slot int) string {
	if slot < 0 || slot >= len(ff.paths) {
		return ""
	}
	return ff.paths[slot]
}

// Fd
// returns the plain descriptor behind slot, -1 when out of range.
func (ff *FixedFiles) Fd(slot int) int {
	if slot < 0 || slot >= len(ff.fds) {
		return -1
	}
	return ff.fds[slot]
}

func (ff *FixedFiles) Len() int {
	return len(ff.fds)
}
