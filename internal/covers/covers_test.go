package covers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/request"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	engine := request.New(request.Config{Timeout: 5 * time.Second, HTTPClient: server.Client()}, nil)
	return New(engine, server.URL, nil), server
}

func TestFetcher_ForDoc(t *testing.T) {
	cover := testJPEG(t, 180, 270)
	var gotPath string
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(cover)
	})

	got, err := f.ForDoc(context.Background(), &domain.Doc{Title: "The Hobbit", CoverI: 14627060})
	require.NoError(t, err)

	assert.Equal(t, "/b/id/14627060-L.jpg", gotPath)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, 180, got.Width)
	assert.Equal(t, 270, got.Height)
	assert.Equal(t, len(cover), got.Size)
	assert.NotEmpty(t, got.BlurHash)
	assert.Equal(t, cover, got.Data)
}

func TestFetcher_DocWithoutCover(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := f.ForDoc(context.Background(), &domain.Doc{Title: "Untitled"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestFetcher_EngineErrorsSurface(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: errors.ErrGeneric,
		},
		{
			name: "gif placeholder",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/gif")
				w.Write([]byte("GIF89a"))
			},
			want: errors.ErrBadContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, server := newTestFetcher(t, tt.handler)
			_, err := f.Fetch(context.Background(), server.URL+"/b/id/1-L.jpg")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetcher_UndecodableImageStillReturned(t *testing.T) {
	f, server := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("not really a jpeg"))
	})

	got, err := f.Fetch(context.Background(), server.URL+"/b/id/1-L.jpg")
	require.NoError(t, err)
	assert.Empty(t, got.BlurHash)
	assert.Zero(t, got.Width)
	assert.Equal(t, []byte("not really a jpeg"), got.Data)
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{32, 48, 32, 48},
		{640, 320, 64, 32},
		{320, 640, 32, 64},
		{4000, 10, 64, 1},
	}

	for _, tt := range tests {
		img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
		b := thumbnail(img).Bounds()
		assert.Equal(t, tt.wantW, b.Dx())
		assert.Equal(t, tt.wantH, b.Dy())
	}
}
