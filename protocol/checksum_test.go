package protocol

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		seed     byte
		parts    [][]byte
		expected byte
	}{
		{
			name:     "seed only",
			seed:     0x6E,
			parts:    nil,
			expected: 0x6E,
		},
		{
			name:     "get brightness request",
			seed:     DisplayWriteAddress,
			parts:    [][]byte{{0x51, 0x82, 0x01, 0x10}},
			expected: 0xAC,
		},
		{
			name:     "split parts fold the same",
			seed:     DisplayWriteAddress,
			parts:    [][]byte{{0x51}, {0x82}, {0x01, 0x10}},
			expected: 0xAC,
		},
		{
			name:     "capabilities request at offset zero",
			seed:     DisplayWriteAddress,
			parts:    [][]byte{{0x51, 0x83, 0xF3, 0x00, 0x00}},
			expected: 0x4F,
		},
		{
			name:     "null message reply",
			seed:     VirtualHostAddress,
			parts:    [][]byte{{0x6E, 0x80}},
			expected: 0xBE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Checksum(tt.seed, tt.parts...)
			if result != tt.expected {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", result, tt.expected)
			}
		})
	}
}

func TestChecksumSeed(t *testing.T) {
	tests := []struct {
		name   string
		source byte
		want   byte
	}{
		{name: "host originated", source: HostAddress, want: DisplayWriteAddress},
		{name: "display originated", source: DisplaySourceAddress, want: VirtualHostAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checksumSeed(tt.source); got != tt.want {
				t.Errorf("checksumSeed(0x%02X) = 0x%02X, want 0x%02X", tt.source, got, tt.want)
			}
		})
	}
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, MaxFrameSize)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(DisplayWriteAddress, data)
	}
}
