package protocol

// Checksum XOR-folds seed and every byte of each part.
//
// DDC/CI frames are protected by a single XOR byte computed over the
// destination address seed, the source byte, the length byte and the
// payload. Checksum works over any split of those bytes.
func Checksum(seed byte, parts ...[]byte) byte {
	sum := seed
	for _, part := range parts {
		for _, b := range part {
			sum ^= b
		}
	}
	return sum
}

// checksumSeed returns the destination address used to seed the checksum
// of a frame sent from source.
//
// Host-originated frames are addressed to the display (0x6E). Everything
// else is a display reply addressed to the virtual host (0x50).
func checksumSeed(source byte) byte {
	if source == HostAddress {
		return DisplayWriteAddress
	}
	return VirtualHostAddress
}

// frameChecksum computes the checksum byte of a serialized frame without
// its trailing checksum: [SOURCE][LENGTH][PAYLOAD...].
func frameChecksum(header []byte) byte {
	return Checksum(checksumSeed(header[0]), header)
}
