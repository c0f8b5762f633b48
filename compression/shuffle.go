package compression

// shuffleBytes transposes src so that byte j of every element is stored
// contiguously. Trailing bytes that do not form a whole element are copied
// unchanged.
func shuffleBytes(dst, src []byte, typesize int) {
	if typesize <= 1 {
		copy(dst, src)
		return
	}
	n := len(src) / typesize
	for i := 0; i < n; i++ {
		for j := 0; j < typesize; j++ {
			dst[j*n+i] = src[i*typesize+j]
		}
	}
	copy(dst[n*typesize:], src[n*typesize:])
}

func unshuffleBytes(dst, src []byte, typesize int) {
	if typesize <= 1 {
		copy(dst, src)
		return
	}
	n := len(src) / typesize
	for i := 0; i < n; i++ {
		for j := 0; j < typesize; j++ {
			dst[i*typesize+j] = src[j*n+i]
		}
	}
	copy(dst[n*typesize:], src[n*typesize:])
}

// shuffleBits stores bit b of byte j of every element in its own bit plane.
// Planes cover the largest multiple of 8 elements; remaining elements and
// trailing bytes are copied unchanged after the planes.
func shuffleBits(dst, src []byte, typesize int) {
	n := len(src) / typesize
	m := n - n%8
	planeLen := m / 8

	clear(dst[:m*typesize])
	for j := 0; j < typesize; j++ {
		for b := 0; b < 8; b++ {
			plane := dst[(j*8+b)*planeLen : (j*8+b+1)*planeLen]
			for i := 0; i < m; i++ {
				if src[i*typesize+j]>>b&1 == 1 {
					plane[i>>3] |= 1 << (i & 7)
				}
			}
		}
	}
	copy(dst[m*typesize:], src[m*typesize:])
}

func unshuffleBits(dst, src []byte, typesize int) {
	n := len(src) / typesize
	m := n - n%8
	planeLen := m / 8

	clear(dst[:m*typesize])
	for j := 0; j < typesize; j++ {
		for b := 0; b < 8; b++ {
			plane := src[(j*8+b)*planeLen : (j*8+b+1)*planeLen]
			for i := 0; i < m; i++ {
				if plane[i>>3]>>(i&7)&1 == 1 {
					dst[i*typesize+j] |= 1 << b
				}
			}
		}
	}
	copy(dst[m*typesize:], src[m*typesize:])
}

func applyShuffle(s Shuffle, src []byte, typesize int) []byte {
	if s == NoShuffle || typesize <= 0 || len(src) < typesize {
		return src
	}
	dst := make([]byte, len(src))
	switch s {
	case ByteShuffle:
		shuffleBytes(dst, src, typesize)
	case BitShuffle:
		shuffleBits(dst, src, typesize)
	default:
		return src
	}
	return dst
}

func undoShuffle(s Shuffle, src []byte, typesize int) []byte {
	if s == NoShuffle || typesize <= 0 || len(src) < typesize {
		return src
	}
	dst := make([]byte, len(src))
	switch s {
	case ByteShuffle:
		unshuffleBytes(dst, src, typesize)
	case BitShuffle:
		unshuffleBits(dst, src, typesize)
	default:
		return src
	}
	return dst
}
