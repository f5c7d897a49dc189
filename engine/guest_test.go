package engine

import "testing"

func TestUnpackPtrLen(t *testing.T) {
	tests := []struct {
		packed uint64
		ptr    uint32
		size   uint32
	}{
		{0, 0, 0},
		{1<<32 | 0, 1, 0},
		{0x0000_1000_0000_0020, 0x1000, 0x20},
		{0xFFFF_FFFF_FFFF_FFFF, 0xFFFFFFFF, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		ptr, size := unpackPtrLen(tt.packed)
		if ptr != tt.ptr || size != tt.size {
			t.Errorf("unpackPtrLen(%#x) = (%d, %d), want (%d, %d)",
				tt.packed, ptr, size, tt.ptr, tt.size)
		}
	}
}
