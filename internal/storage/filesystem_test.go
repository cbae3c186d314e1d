package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestFileStoreWriteRead(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := s.Write(ctx, "artifacts/u-1/out.png", []byte("payload"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "artifacts/u-1/out.png" {
		t.Fatalf("key = %q", key)
	}

	data, err := s.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, []byte("payload")) {
		t.Fatalf("data = %q", data)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain", key: "a/b.png", want: "a/b.png"},
		{name: "leading slash", key: "/a/b.png", want: "a/b.png"},
		{name: "dot slash", key: "./a.png", want: "a.png"},
		{name: "backslashes", key: `a\b.png`, want: "a/b.png"},
		{name: "traversal", key: "../etc/passwd", wantErr: true},
		{name: "nested traversal", key: "a/../../etc", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) accepted, got %q", tc.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q): %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
