package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestDeriveFormat(t *testing.T) {
	canonical := []byte(`{"a":1}`)
	id, err := Derive(canonical, V4)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	sum := sha256.Sum256(canonical)
	want := "edition:v4:" + hex.EncodeToString(sum[:])
	if string(id) != want {
		t.Fatalf("Derive = %q, want %q", id, want)
	}
	if id.Version() != V4 {
		t.Fatalf("Version = %d, want 4", id.Version())
	}
	if id.Hex() != hex.EncodeToString(sum[:]) {
		t.Fatalf("Hex = %q", id.Hex())
	}
}

func TestDeriveVersionChangesOnlyPrefix(t *testing.T) {
	canonical := []byte("same bytes")
	a, _ := Derive(canonical, V1)
	b, _ := Derive(canonical, V3)
	if a == b {
		t.Fatal("expected different ids for different versions")
	}
	if a.Hex() != b.Hex() {
		t.Fatal("expected the digest to depend only on canonical bytes")
	}
}

func TestDeriveRejectsUnsupportedVersion(t *testing.T) {
	for _, v := range []Version{0, 5, -1} {
		if _, err := Derive([]byte("x"), v); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Derive(v=%d) error = %v, want ErrUnsupportedVersion", v, err)
		}
	}
}

func TestParseID(t *testing.T) {
	digest := strings.Repeat("ab", 32)
	tests := []struct {
		in      string
		wantErr error
	}{
		{"edition:v4:" + digest, nil},
		{"  edition:v1:" + digest + " ", nil},
		{"edition:v9:" + digest, ErrUnsupportedVersion},
		{"edition:4:" + digest, ErrMalformedID},
		{"movie:v4:" + digest, ErrMalformedID},
		{"edition:v4:" + strings.ToUpper(digest), ErrMalformedID},
		{"edition:v4:abc", ErrMalformedID},
	}
	for _, tt := range tests {
		_, err := ParseID(tt.in)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ParseID(%q) unexpected error: %v", tt.in, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseID(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestVersionForSchema(t *testing.T) {
	tests := []struct {
		schema string
		want   Version
	}{
		{"", Current},
		{"1.0.0", V1},
		{"1.9.3", V1},
		{"2.0.0", V2},
		{"3.1", V3},
		{"4.0.0", V4},
		{"5.2.0", V4},
	}
	for _, tt := range tests {
		got, err := VersionForSchema(tt.schema)
		if err != nil {
			t.Fatalf("VersionForSchema(%q) error: %v", tt.schema, err)
		}
		if got != tt.want {
			t.Errorf("VersionForSchema(%q) = %v, want %v", tt.schema, got, tt.want)
		}
	}
	if _, err := VersionForSchema("0.9.0"); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected pre-1.0 schema to be unbound, got %v", err)
	}
	if _, err := VersionForSchema("not-a-version"); err == nil {
		t.Fatal("expected parse error")
	}
}
