package jid

import "testing"

func TestBare(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"5551234567@s.whatsapp.net", "5551234567"},
		{"120363@g.us", "120363"},
		{"a@b@c", "a"},
		{"no-server", "no-server"},
		{"@s.whatsapp.net", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Bare(tt.in); got != tt.want {
			t.Errorf("Bare(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"5551234567@s.whatsapp.net", KindUser},
		{"120363041234567890@g.us", KindGroup},
		{"status@broadcast", KindStatus},
		{"1700000000@broadcast", KindBroadcast},
		{"123456789@lid", KindLID},
		{"120363000000@newsletter", KindNewsletter},
		{"x@example.org", KindOther},
		{"5551234567", KindInvalid},
		{"", KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
