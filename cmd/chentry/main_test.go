package main

import "testing"

func TestParseAddr(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x08048000", 0x08048000, false},
		{"134512640", 134512640, false},
		{"not-a-number", 0, true},
	}
	for _, c := range cases {
		got, err := parseAddr(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseAddr(%q): want error, got nil", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAddr(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseAddr(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
