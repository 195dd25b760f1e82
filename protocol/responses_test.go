package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseVCPFeatureReply(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		payload []byte
		want    *VCPFeatureReply
		errType interface{}
		errMsg  string
	}{
		{
			name:    "brightness",
			code:    VCPBrightness,
			payload: []byte{0x02, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32},
			want:    &VCPFeatureReply{Code: 0x10, Type: TypeSetParameter, Max: 100, Current: 50},
		},
		{
			name:    "input source with large max",
			code:    VCPInputSource,
			payload: []byte{0x02, 0x00, 0x60, 0x00, 0xFF, 0xFF, 0x00, 0x0F},
			want:    &VCPFeatureReply{Code: 0x60, Type: TypeSetParameter, Max: 0xFFFF, Current: 0x0F},
		},
		{
			name:    "momentary",
			code:    VCPRestoreFactoryDefaults,
			payload: []byte{0x02, 0x00, 0x04, 0x01, 0x00, 0x01, 0x00, 0x00},
			want:    &VCPFeatureReply{Code: 0x04, Type: TypeMomentary, Max: 1, Current: 0},
		},
		{
			name:    "unsupported",
			code:    0x7E,
			payload: []byte{0x02, 0x01, 0x7E, 0x00, 0x00, 0x00, 0x00, 0x00},
			errType: &UnsupportedFeatureError{},
			errMsg:  "unsupported VCP feature 0x7E",
		},
		{
			name:    "unknown result",
			code:    VCPBrightness,
			payload: []byte{0x02, 0x05, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32},
			errType: &UnexpectedReplyError{},
			errMsg:  "unknown result code 0x05",
		},
		{
			name:    "short",
			code:    VCPBrightness,
			payload: []byte{0x02, 0x00, 0x10},
			errType: &UnexpectedReplyError{},
			errMsg:  "got 3 bytes, expected 8",
		},
		{
			name:    "wrong opcode",
			code:    VCPBrightness,
			payload: []byte{0xE3, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32},
			errType: &UnexpectedReplyError{},
			errMsg:  "opcode 0xE3",
		},
		{
			name:    "reply for another feature",
			code:    VCPBrightness,
			payload: []byte{0x02, 0x00, 0x12, 0x00, 0x00, 0x64, 0x00, 0x32},
			errType: &UnexpectedReplyError{},
			errMsg:  "reply for feature 0x12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseVCPFeatureReply(tt.code, tt.payload)

			if tt.errType != nil {
				if err == nil {
					t.Fatalf("expected error, got %+v", reply)
				}
				switch tt.errType.(type) {
				case *UnsupportedFeatureError:
					var target *UnsupportedFeatureError
					if !errors.As(err, &target) {
						t.Errorf("error type = %T, want *UnsupportedFeatureError", err)
					}
				case *UnexpectedReplyError:
					var target *UnexpectedReplyError
					if !errors.As(err, &target) {
						t.Errorf("error type = %T, want *UnexpectedReplyError", err)
					}
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *reply != *tt.want {
				t.Errorf("reply = %+v, want %+v", reply, tt.want)
			}
		})
	}
}

func TestParseFragmentReply(t *testing.T) {
	full := bytes.Repeat([]byte{'x'}, MaxFragmentSize)

	tests := []struct {
		name      string
		offset    uint16
		payload   []byte
		wantData  []byte
		wantFinal bool
		wantErr   string
	}{
		{
			name:      "full fragment",
			offset:    0x0020,
			payload:   append([]byte{OpCapabilitiesReply, 0x00, 0x20}, full...),
			wantData:  full,
			wantFinal: false,
		},
		{
			name:      "short final fragment",
			offset:    0x0040,
			payload:   []byte{OpCapabilitiesReply, 0x00, 0x40, 'm', 'c', 'c', 's', ')'},
			wantData:  []byte("mccs)"),
			wantFinal: true,
		},
		{
			name:      "empty terminator",
			offset:    0x0045,
			payload:   []byte{OpCapabilitiesReply, 0x00, 0x45},
			wantData:  []byte{},
			wantFinal: true,
		},
		{
			name:    "stale offset",
			offset:  0x0040,
			payload: []byte{OpCapabilitiesReply, 0x00, 0x20, 'a'},
			wantErr: "offset mismatch",
		},
		{
			name:    "wrong opcode",
			offset:  0,
			payload: []byte{OpTableReadReply, 0x00, 0x00},
			wantErr: "opcode 0xE4",
		},
		{
			name:    "truncated header",
			offset:  0,
			payload: []byte{OpCapabilitiesReply, 0x00},
			wantErr: "minimum is 3",
		},
		{
			name:    "oversized fragment",
			offset:  0,
			payload: append([]byte{OpCapabilitiesReply, 0x00, 0x00}, make([]byte, MaxFragmentSize+1)...),
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, final, err := ParseFragmentReply("capabilities", OpCapabilitiesReply, tt.offset, tt.payload)

			if tt.wantErr != "" {
				if !IsProtocolError(err) {
					t.Fatalf("expected protocol error, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(data, tt.wantData) {
				t.Errorf("data = %q, want %q", data, tt.wantData)
			}
			if final != tt.wantFinal {
				t.Errorf("final = %v, want %v", final, tt.wantFinal)
			}
		})
	}
}

func TestParseTimingReply(t *testing.T) {
	report, err := ParseTimingReply([]byte{OpTimingReply, 0x03, 0x1A, 0x5E, 0x17, 0x70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.HorizontalHz() != 67500 {
		t.Errorf("HorizontalHz() = %d, want 67500", report.HorizontalHz())
	}
	if report.VerticalHz() != 60 {
		t.Errorf("VerticalHz() = %v, want 60", report.VerticalHz())
	}
	if !report.PositiveHSync() || !report.PositiveVSync() {
		t.Errorf("sync polarity bits not decoded from status 0x%02X", report.Status)
	}
	if report.OutOfRange() || report.Unstable() {
		t.Errorf("unexpected error bits in status 0x%02X", report.Status)
	}

	if _, err := ParseTimingReply([]byte{OpTimingReply, 0x00}); !IsProtocolError(err) {
		t.Errorf("short reply: got %v, want protocol error", err)
	}
	if _, err := ParseTimingReply([]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00}); !IsProtocolError(err) {
		t.Errorf("wrong opcode: got %v, want protocol error", err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&EncodingError{Size: 40, Max: 36}, "payload of 40 bytes exceeds maximum 36 bytes"},
		{&ChecksumError{Expected: 0xAC, Actual: 0xAD}, "checksum mismatch: got 0xAD, expected 0xAC"},
		{&ChecksumError{Reason: "frame too short"}, "invalid frame: frame too short"},
		{&UnsupportedFeatureError{Code: 0x10}, "unsupported VCP feature 0x10 (brightness)"},
		{&OffsetMismatchError{Expected: 0x10, Actual: 0x20}, "requested 0x0010, reply echoes 0x0020"},
		{&UnexpectedReplyError{Operation: "get timing report", Reason: "short"}, "get timing report: unexpected reply: short"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFeatureName(t *testing.T) {
	tests := []struct {
		code byte
		want string
	}{
		{VCPBrightness, "brightness"},
		{VCPPowerMode, "power mode"},
		{0xE5, "manufacturer specific 0xE5"},
		{0x7E, "unknown feature 0x7E"},
	}

	for _, tt := range tests {
		if got := FeatureName(tt.code); got != tt.want {
			t.Errorf("FeatureName(0x%02X) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
