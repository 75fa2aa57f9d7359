package buffer

// Buffer is a growable byte slice with a hard ceiling. The capacity grows in fixed steps
// rather than being doubled, so the memory taken by a single buffer never overshoots the
// limit by more than one step.
type Buffer struct {
	memory  []byte
	growth  int
	maxSize int
}

// New returns a buffer, growing by growth bytes at once and holding at most maxSize bytes.
// No memory is allocated until the first Append.
func New(growth, maxSize int) *Buffer {
	if growth <= 0 {
		growth = 1
	}

	return &Buffer{
		growth:  growth,
		maxSize: maxSize,
	}
}

// Append writes data, checking whether the new amount of bytes doesn't exceed the limit,
// otherwise discarding the data and returning false. The buffer stays unchanged in the
// latter case.
func (b *Buffer) Append(elements []byte) (ok bool) {
	newLen := len(b.memory) + len(elements)
	if newLen > b.maxSize {
		return false
	}

	if newLen > cap(b.memory) {
		b.grow(newLen)
	}

	b.memory = append(b.memory, elements...)
	return true
}

func (b *Buffer) grow(atLeast int) {
	steps := (atLeast + b.growth - 1) / b.growth
	memory := make([]byte, len(b.memory), min(steps*b.growth, b.maxSize))
	copy(memory, b.memory)
	b.memory = memory
}

// Bytes returns the written data without copying. It's valid until the next Append or Clear.
func (b *Buffer) Bytes() []byte {
	return b.memory
}

func (b *Buffer) Len() int {
	return len(b.memory)
}

func (b *Buffer) Cap() int {
	return cap(b.memory)
}

// Limit returns the maximal number of bytes the buffer may hold.
func (b *Buffer) Limit() int {
	return b.maxSize
}

// Trunc drops the bytes starting from n. Does nothing if n is out of range.
func (b *Buffer) Trunc(n int) {
	if n >= 0 && n < len(b.memory) {
		b.memory = b.memory[:n]
	}
}

// Clear just resets the pointer, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
