// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

// MSB-first bitfield accessors for the bridge datagram layouts. Bit 0 is the
// most significant bit of buf[0]; a field [start, end] spans end-start+1
// bits with the field's least significant bit at position end. Fields may
// straddle byte boundaries mid-nibble (the version/bus-number split does).

func setBits(buf []byte, start, end int, value uint64) {
	for i := 0; i <= end-start; i++ {
		pos := end - i
		mask := byte(1) << (7 - pos%8)
		if value>>i&1 != 0 {
			buf[pos/8] |= mask
		} else {
			buf[pos/8] &^= mask
		}
	}
}

func getBits(buf []byte, start, end int) uint64 {
	var v uint64
	for pos := start; pos <= end; pos++ {
		v <<= 1
		if buf[pos/8]>>(7-pos%8)&1 != 0 {
			v |= 1
		}
	}
	return v
}
