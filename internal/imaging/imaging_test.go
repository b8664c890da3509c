package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	img, format, err := Decode(pngBytes(t, 20, 10))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("decoded size = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not an image at all")},
		{"truncated png", pngBytes(t, 20, 10)[:10]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.data); !errors.Is(err, ErrDecode) {
				t.Errorf("Decode() = %v, want ErrDecode", err)
			}
		})
	}
}

func TestFSFetcher(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("blob content")
	if err := os.WriteFile(filepath.Join(dir, "sha256-abc"), payload, 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFSFetcher(dir)
	ctx := context.Background()

	got, err := f.Fetch(ctx, "sha256-abc")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Fetch() = %q, want %q", got, payload)
	}

	if _, err := f.Fetch(ctx, "sha256-missing"); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Fetch(missing) = %v, want ErrNotFetched", err)
	}

	for _, addr := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		if _, err := f.Fetch(ctx, addr); err == nil || errors.Is(err, ErrNotFetched) {
			t.Errorf("Fetch(%q) = %v, want address rejection", addr, err)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	payload := []byte("blob content")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blobs/sha256-abc":
			w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	f := NewHTTPFetcher(ts.URL+"/blobs/", nil)
	ctx := context.Background()

	got, err := f.Fetch(ctx, "sha256-abc")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Fetch() = %q, want %q", got, payload)
	}

	if _, err := f.Fetch(ctx, "sha256-missing"); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Fetch(missing) = %v, want ErrNotFetched", err)
	}
}

// countingFetcher counts how often each address is fetched.
type countingFetcher struct {
	inner Fetcher
	calls atomic.Int64
}

func (f *countingFetcher) Fetch(ctx context.Context, addr string) ([]byte, error) {
	f.calls.Add(1)
	return f.inner.Fetch(ctx, addr)
}

func TestImageCacheFetchesOnce(t *testing.T) {
	counting := &countingFetcher{inner: NewMapFetcher(map[string][]byte{
		"sha256-abc": pngBytes(t, 16, 16),
	})}
	cache := NewImageCache(counting)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		img, err := cache.Load(ctx, "sha256-abc")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 16 {
			t.Errorf("cached image size = %d, want 16", b.Dx())
		}
	}
	if got := counting.calls.Load(); got != 1 {
		t.Errorf("fetcher called %d times, want 1", got)
	}

	cache.Evict("sha256-abc")
	if _, err := cache.Load(ctx, "sha256-abc"); err != nil {
		t.Fatalf("Load() after evict error: %v", err)
	}
	if got := counting.calls.Load(); got != 2 {
		t.Errorf("fetcher called %d times after evict, want 2", got)
	}
}

func TestImageCacheDoesNotCacheFailures(t *testing.T) {
	counting := &countingFetcher{inner: NewMapFetcher(map[string][]byte{
		"sha256-bad": []byte("not an image"),
	})}
	cache := NewImageCache(counting)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cache.Load(ctx, "sha256-bad"); !errors.Is(err, ErrDecode) {
			t.Errorf("Load(bad) = %v, want ErrDecode", err)
		}
	}
	if _, err := cache.Load(ctx, "sha256-missing"); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Load(missing) = %v, want ErrNotFetched", err)
	}
	if got := counting.calls.Load(); got != 3 {
		t.Errorf("fetcher called %d times, want 3 (failures not cached)", got)
	}
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.White)
		}
	}

	cropped, err := Crop(img, 10, 5, 30, 25, 1.0)
	if err != nil {
		t.Fatalf("Crop() error: %v", err)
	}
	if b := cropped.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("cropped size = %dx%d, want 20x20", b.Dx(), b.Dy())
	}

	scaled, err := Crop(img, 10, 5, 30, 25, 2.0)
	if err != nil {
		t.Fatalf("Crop() with scale error: %v", err)
	}
	if b := scaled.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("scaled size = %dx%d, want 40x40", b.Dx(), b.Dy())
	}

	if _, err := Crop(img, -1, 0, 10, 10, 1.0); err == nil {
		t.Errorf("Crop() outside bounds should fail")
	}
	if _, err := Crop(img, 20, 20, 10, 10, 1.0); err == nil {
		t.Errorf("Crop() with inverted region should fail")
	}
}
