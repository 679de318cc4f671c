package main

import "testing"

func TestDeriveWSURL(t *testing.T) {
	tests := map[string]string{
		"http://127.0.0.1:3000":         "ws://127.0.0.1:3000/ws",
		"https://panel.example.com":     "wss://panel.example.com/ws",
		"https://example.com/minecraft": "wss://example.com/minecraft/ws",
		"not a url":                     "ws://127.0.0.1:3000/ws",
	}
	for in, want := range tests {
		if got := deriveWSURL(in); got != want {
			t.Errorf("deriveWSURL(%q) = %q, want %q", in, got, want)
		}
	}
}
