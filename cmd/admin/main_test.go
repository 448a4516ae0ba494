package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPromptPassword(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	tests := []struct {
		name    string
		inputs  []string
		want    string
		wantErr bool
	}{
		{name: "match", inputs: []string{"s3cret-pass", "s3cret-pass"}, want: "s3cret-pass"},
		{name: "mismatch", inputs: []string{"s3cret-pass", "other-pass"}, wantErr: true},
		{name: "too short", inputs: []string{"short", "short"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			i := 0
			readPassword = func(int) ([]byte, error) {
				if i >= len(tc.inputs) {
					return nil, errors.New("no more input")
				}
				v := tc.inputs[i]
				i++
				return []byte(v), nil
			}

			var out bytes.Buffer
			got, err := promptPassword(&out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
			if !strings.Contains(out.String(), "Confirm password") {
				t.Fatalf("expected confirm prompt, got %q", out.String())
			}
		})
	}
}

func TestPrompt_TrimsInput(t *testing.T) {
	var out bytes.Buffer
	got, err := prompt(bufio.NewReader(strings.NewReader("  ann@example.com \n")), &out, "Admin email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ann@example.com" {
		t.Fatalf("got %q", got)
	}
}
