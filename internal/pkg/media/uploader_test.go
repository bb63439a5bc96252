package media

import (
	"Nocturne/internal/api/config"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func minIOTestConfig() config.MinIOConfig {
	return config.MinIOConfig{
		Endpoint:         "minio.internal:9000",
		ExternalEndpoint: "cdn.example.com",
		Bucket:           "nocturne",
		UseSSL:           true,
		UsePublicLink:    true,
	}
}

func TestFitWithinShrinksOversizedImage(t *testing.T) {
	src := imaging.New(4000, 1000, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out := FitWithin(src, MaxImageEdge)

	bounds := out.Bounds()
	if bounds.Dx() != 1920 {
		t.Fatalf("width = %d, want 1920", bounds.Dx())
	}
	// 等比缩放：4000x1000 -> 1920x480
	if bounds.Dy() != 480 {
		t.Fatalf("height = %d, want 480", bounds.Dy())
	}
}

func TestFitWithinKeepsSmallImage(t *testing.T) {
	src := imaging.New(800, 600, color.NRGBA{A: 255})

	out := FitWithin(src, MaxImageEdge)

	if out != src {
		t.Fatal("small image should be returned unchanged")
	}
}

func TestPublicURLPrefersExternalEndpoint(t *testing.T) {
	u := &Uploader{cfg: minIOTestConfig()}

	got := u.PublicURL("im/abc.jpg")
	want := "https://cdn.example.com/nocturne/im/abc.jpg"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}
