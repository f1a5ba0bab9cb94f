package primitives

import "testing"

func TestHashFNVDeterministic(t *testing.T) {
	a := HashFNV(0x1000)
	b := HashFNV(0x1000)
	if a != b {
		t.Fatalf("same address hashed differently: %d vs %d", a, b)
	}

	if HashFNV(0x1000) == HashFNV(0x1008) {
		t.Error("adjacent addresses should not share a full 64-bit hash")
	}
}

func TestHashFNVKnownValue(t *testing.T) {
	// FNV-1a over eight zero bytes
	got := HashFNV(0)
	var want uint64 = 0xcbf29ce484222325
	for range 8 {
		want ^= 0
		want *= 0x100000001b3
	}
	if uint64(got) != want {
		t.Errorf("HashFNV(0) = %#x, want %#x", uint64(got), want)
	}
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		kind    HashKind
		wantErr bool
	}{
		{HashFNV1a, false},
		{"", false},
		{HashXX, false},
		{"murmur", true},
	}

	for _, tt := range tests {
		h, err := NewHasher(tt.kind)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewHasher(%q) expected error", tt.kind)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewHasher(%q) unexpected error: %v", tt.kind, err)
		}
		if h(42) != h(42) {
			t.Errorf("hasher %q not deterministic", tt.kind)
		}
	}
}

func TestHashCodeTruncate(t *testing.T) {
	h := HashCode(0xFFFF_FFFF_FFFF_FFFF)
	if got := h.Truncate(10); got != 1023 {
		t.Errorf("Truncate(10) = %d, want 1023", got)
	}
	if got := h.Truncate(64); got != uint64(h) {
		t.Errorf("Truncate(64) = %d, want %d", got, uint64(h))
	}
	if got := HashCode(0b1011).Truncate(2); got != 0b11 {
		t.Errorf("Truncate(2) = %b, want 11", got)
	}
}

func TestTickSince(t *testing.T) {
	if got := Tick(10).Since(4); got != 6 {
		t.Errorf("Since = %d, want 6", got)
	}
	if got := Tick(4).Since(10); got != 0 {
		t.Errorf("Since out of order = %d, want 0", got)
	}
}
