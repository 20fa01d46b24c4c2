package domain

import (
	"errors"
	"testing"
)

func TestParseImageName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSalt string
		wantHash string
		wantErr  bool
	}{
		{"valid", "image_3f2a_9b1c0d.png", "3f2a", "9b1c0d", false},
		{"single chars", "image_0_f.png", "0", "f", false},
		{"uppercase hex rejected", "image_3F2A_9b1c.png", "", "", true},
		{"wrong extension", "image_3f2a_9b1c.jpg", "", "", true},
		{"missing hash", "image_3f2a.png", "", "", true},
		{"non hex", "image_zz_9b1c.png", "", "", true},
		{"prefix garbage", "ximage_3f2a_9b1c.png", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, hash, err := ParseImageName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidImageName) {
					t.Fatalf("expected ErrInvalidImageName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if salt != tt.wantSalt || hash != tt.wantHash {
				t.Errorf("got (%q, %q), want (%q, %q)", salt, hash, tt.wantSalt, tt.wantHash)
			}
		})
	}
}

func TestImagePath(t *testing.T) {
	tests := []struct {
		name   string
		dir    string
		levels int
		want   string
	}{
		{"flat", "captcha-render", 0, "captcha-render/image_ab_c0ffee.png"},
		{"one level", "captcha-render", 1, "captcha-render/c/image_ab_c0ffee.png"},
		{"three levels", "captcha-render", 3, "captcha-render/c/0/f/image_ab_c0ffee.png"},
		{"levels beyond hash length", "captcha-render", 8, "captcha-render/c/0/f/f/e/e/image_ab_c0ffee.png"},
		{"negative levels", "captcha-render", -2, "captcha-render/image_ab_c0ffee.png"},
		{"default dir", "", 1, "captcha-render/c/image_ab_c0ffee.png"},
		{"trailing slash", "pool/", 2, "pool/c/0/image_ab_c0ffee.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImagePath(tt.dir, tt.levels, "ab", "c0ffee"); got != tt.want {
				t.Errorf("ImagePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImagePath_CapsAtMaxLevels(t *testing.T) {
	hash := "0123456789abcdef"
	got := ImagePath("r", 32, "1", hash)
	want := "r/0/1/2/3/4/5/6/7/8/9/image_1_0123456789abcdef.png"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewArtifactFile(t *testing.T) {
	a, err := NewArtifactFile("/tmp/out/a/b/image_12_ab34.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Salt != "12" || a.Hash != "ab34" {
		t.Errorf("unexpected parse %+v", a)
	}
	if got := a.Destination("captcha-render", 2); got != "captcha-render/a/b/image_12_ab34.png" {
		t.Errorf("unexpected destination %q", got)
	}

	if _, err := NewArtifactFile("/tmp/out/README"); !errors.Is(err, ErrInvalidImageName) {
		t.Errorf("expected ErrInvalidImageName, got %v", err)
	}
}

func TestImageName_RoundTrip(t *testing.T) {
	salt, hash, err := ParseImageName(ImageName("dead", "beef"))
	if err != nil || salt != "dead" || hash != "beef" {
		t.Errorf("round trip failed: %q %q %v", salt, hash, err)
	}
}
