package rom

// Synthesize builds a minimal z64 image of the given size with name in the
// header and fill repeated in the body. Used by tests across packages.
func Synthesize(name string, size int, fill byte) []byte {
	if size < headerMinSize {
		size = headerMinSize
	}
	data := make([]byte, size)
	copy(data, magicZ64)
	for i := internalNameOff; i < internalNameOff+internalNameSize && i < size; i++ {
		data[i] = ' '
	}
	copy(data[internalNameOff:], name)
	for i := internalNameOff + internalNameSize; i < size; i++ {
		data[i] = fill
	}
	return data
}

// ToV64 returns a byte-swapped copy of a z64 image.
func ToV64(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	swapPairs(out)
	return out
}
