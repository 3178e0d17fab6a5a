// SPDX-License-Identifier: MPL-2.0

package npmver

import (
	"errors"
	"slices"
	"testing"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.2.3", "1.2.3", false},
		{"v1.2.3", "1.2.3", false},
		{"=1.2.3", "1.2.3", false},
		{"1.2.3-beta.1", "1.2.3-beta.1", false},
		{"1.2.3+build.5", "1.2.3", false},
		{"1.2", "", true},
		{"01.2.3", "", true},
		{"latest", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVersion) {
					t.Fatalf("ParseVersion(%q) error = %v, want ErrInvalidVersion", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) error = %v", tt.in, err)
			}
			if v.String() != tt.want {
				t.Errorf("ParseVersion(%q) = %q, want %q", tt.in, v.String(), tt.want)
			}
			if v.Original != tt.in {
				t.Errorf("Original = %q, want %q", v.Original, tt.in)
			}
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha.10", "1.0.0-alpha.9", 1},
		{"1.0.0-2", "1.0.0-10", -1},
		{"1.0.0+a", "1.0.0+b", 0},
	}
	for _, tt := range tests {
		a, _ := ParseVersion(tt.a)
		b, _ := ParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRange_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rng     string
		version string
		want    bool
	}{
		{"^1.2.3", "1.9.9", true},
		{"^1.2.3", "2.0.0", false},
		{"^1.2.3", "1.2.2", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.4", false},
		{"^1.x", "1.5.0", true},
		{"^0.x", "0.9.0", true},
		{"^0.x", "1.0.0", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{"~1", "1.9.0", true},
		{"~>1.2", "1.2.5", true},
		{"1.x", "1.0.0", true},
		{"1.x", "2.0.0", false},
		{"1.2.*", "1.2.7", true},
		{"*", "3.0.0", true},
		{"", "3.0.0", true},
		{">=1.0.0 <2", "1.5.0", true},
		{">=1.0.0 <2", "2.0.0", false},
		{">= 1.0.0", "1.0.0", true},
		{">1.2", "1.2.9", false},
		{">1.2", "1.3.0", true},
		{"<=1.2", "1.2.9", true},
		{"<1.2", "1.1.9", true},
		{"<1.2", "1.2.0", false},
		{"1.2.3 - 2.3.4", "2.3.4", true},
		{"1.2.3 - 2.3", "2.3.9", true},
		{"1.2.3 - 2.3", "2.4.0", false},
		{"^1 || ^3", "3.1.0", true},
		{"^1 || ^3", "2.1.0", false},
		{"1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.4", false},
		{"^1.0.0", "1.5.0-beta", false},
		{"^1.5.0-beta", "1.5.0-rc.1", true},
		{"^1.5.0-beta", "1.6.0-rc.1", false},
		{"*", "1.0.0-beta", false},
	}
	for _, tt := range tests {
		r, err := ParseRange(tt.rng)
		if err != nil {
			t.Fatalf("ParseRange(%q) error = %v", tt.rng, err)
		}
		v, err := ParseVersion(tt.version)
		if err != nil {
			t.Fatalf("ParseVersion(%q) error = %v", tt.version, err)
		}
		if got := r.Matches(v); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.rng, tt.version, got, tt.want)
		}
	}
}

func TestParseRange_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"latest", "next", ">=", "1.2.3.4", "^abc"} {
		if _, err := ParseRange(s); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ParseRange(%q) error = %v, want ErrInvalidRange", s, err)
		}
		if IsRange(s) {
			t.Errorf("IsRange(%q) = true, want false", s)
		}
	}
}

func TestRange_MaxSatisfying(t *testing.T) {
	t.Parallel()

	versions := []string{"1.0.0", "1.4.2", "1.10.0", "2.0.0-rc.1", "2.0.0", "garbage"}

	tests := []struct {
		rng    string
		want   string
		wantOK bool
	}{
		{"^1.0.0", "1.10.0", true},
		{"~1.4.0", "1.4.2", true},
		{"*", "2.0.0", true},
		{"^3", "", false},
	}
	for _, tt := range tests {
		r, err := ParseRange(tt.rng)
		if err != nil {
			t.Fatalf("ParseRange(%q) error = %v", tt.rng, err)
		}
		got, ok := r.MaxSatisfying(versions)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%q.MaxSatisfying() = (%q, %v), want (%q, %v)", tt.rng, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSortVersions(t *testing.T) {
	t.Parallel()

	got := SortVersions([]string{"1.0.0", "bad", "1.10.0", "1.2.0", "1.10.0-beta"})
	want := []string{"1.10.0", "1.10.0-beta", "1.2.0", "1.0.0"}
	if !slices.Equal(got, want) {
		t.Errorf("SortVersions() = %v, want %v", got, want)
	}
}
