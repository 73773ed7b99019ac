package main

import (
	"testing"
)

func TestUserIDFromAuth(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer tok-abc", "tok-abc"},
		{"Bearer  padded ", "padded"},
		{"tok-abc", ""},
		{"", ""},
		{"Basic dXNlcg==", ""},
	}

	for _, c := range cases {
		if got := userIDFromAuth(c.header); got != c.want {
			t.Errorf("userIDFromAuth(%q) = %q, want %q", c.header, got, c.want)
		}
	}
}
