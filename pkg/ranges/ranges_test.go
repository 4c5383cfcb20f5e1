package ranges

import (
	"testing"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/rng"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    Int
		wantErr bool
	}{
		{"3", Int{3, 3}, false},
		{"1~5", Int{1, 5}, false},
		{" 2 ~ 4 ", Int{2, 4}, false},
		{"-3~3", Int{-3, 3}, false},
		{"", Int{}, true},
		{"a", Int{}, true},
		{"1~", Int{}, true},
		{"1~2~3", Int{}, true},
		{"5~1", Int{}, true},
		{"1.5", Int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInt(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidRange) {
					t.Errorf("ParseInt(%q) code = %v, want %v", tt.in, errors.GetCode(err), errors.ErrCodeInvalidRange)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseInt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRadius(t *testing.T) {
	tests := []struct {
		in      string
		want    Int
		wantErr bool
	}{
		{"1", Int{1, 1}, false},
		{"3", Int{1, 3}, false},
		{"2~3", Int{2, 3}, false},
		{"0~2", Int{0, 2}, false},
		{"0", Int{}, true},
		{"x", Int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRadius(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRadius(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseRadius(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    Float
		wantErr bool
	}{
		{"0.5", Float{0.5, 0.5}, false},
		{"-1~1", Float{-1, 1}, false},
		{"0~0.25", Float{0, 0.25}, false},
		{"1~0", Float{}, true},
		{"~", Float{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFloat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFloat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := IntOf(4).String(); got != "4" {
		t.Errorf("IntOf(4).String() = %q, want %q", got, "4")
	}
	if got := (Int{2, 9}).String(); got != "2~9" {
		t.Errorf("String() = %q, want %q", got, "2~9")
	}
	if got := (Float{0.25, 1}).String(); got != "0.25~1" {
		t.Errorf("String() = %q, want %q", got, "0.25~1")
	}
}

func TestDrawWithinBounds(t *testing.T) {
	src := rng.New(42)
	ir := Int{2, 5}
	fr := Float{-0.5, 0.5}
	for i := 0; i < 500; i++ {
		if v := ir.Draw(src); !ir.Contains(v) {
			t.Fatalf("Int.Draw() = %d, outside %v", v, ir)
		}
		if v := fr.Draw(src); !fr.Contains(v) {
			t.Fatalf("Float.Draw() = %v, outside %v", v, fr)
		}
	}
	if src.Draws() != 1000 {
		t.Errorf("Draws() = %d, want 1000", src.Draws())
	}
}
