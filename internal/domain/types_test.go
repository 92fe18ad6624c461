package domain

import "testing"

func TestPairKeyIsSymmetric(t *testing.T) {
	if PairKey("a", "b") != PairKey("b", "a") {
		t.Errorf("PairKey(a,b) = %q, PairKey(b,a) = %q", PairKey("a", "b"), PairKey("b", "a"))
	}
	if got := PairKey("zed", "amy"); got != "amy:zed" {
		t.Errorf("PairKey(zed, amy) = %q, want amy:zed", got)
	}
}

func TestMessageBetween(t *testing.T) {
	m := &Message{SenderID: "a", ReceiverID: "b"}
	tests := []struct {
		x, y string
		want bool
	}{
		{"a", "b", true},
		{"b", "a", true},
		{"a", "c", false},
		{"a", "a", false},
	}
	for _, tt := range tests {
		if got := m.Between(tt.x, tt.y); got != tt.want {
			t.Errorf("Between(%q, %q) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDisplayNameFallsBackToPlaceholder(t *testing.T) {
	p := &Profile{ID: "0123456789abcdef"}
	if got := p.DisplayName(); got != "Neighbor 01234567" {
		t.Errorf("DisplayName() = %q, want Neighbor 01234567", got)
	}
	p.FullName = "  Rosa Parks "
	if got := p.DisplayName(); got != "Rosa Parks" {
		t.Errorf("DisplayName() = %q, want Rosa Parks", got)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID(abc) = %q", got)
	}
	if got := ShortID("abcdefghij"); got != "abcdefgh" {
		t.Errorf("ShortID(abcdefghij) = %q", got)
	}
}

func TestParsePairChannel(t *testing.T) {
	name := PairChannel("zed", "amy")
	if name != "chat:amy:zed" {
		t.Fatalf("PairChannel = %q", name)
	}
	a, b, ok := ParsePairChannel(name)
	if !ok || a != "amy" || b != "zed" {
		t.Errorf("ParsePairChannel(%q) = %q, %q, %v", name, a, b, ok)
	}

	for _, bad := range []string{"", "chat:", "chat:amy", "chat::zed", "chat:amy:", "room:amy:zed", "chat:a:b:c"} {
		if _, _, ok := ParsePairChannel(bad); ok {
			t.Errorf("ParsePairChannel(%q) ok, want rejected", bad)
		}
	}
}
