package recipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReferencesPassthroughAndDrops(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	refs := []string{"", "https://keep.example/a.png", "", "https://keep.example/b.png"}
	resolved := e.ResolveReferences(context.Background(), refs)

	assert.Equal(t, []string{"https://keep.example/a.png", "https://keep.example/b.png"}, resolved)
}

func TestResolveReferencesUploadsDataURL(t *testing.T) {
	e, _, _, up := newTestEngine(t)

	resolved := e.ResolveReferences(context.Background(), []string{"data:image/png;base64,aGk="})

	require.Len(t, resolved, 1)
	assert.True(t, up.IsDurableURL(resolved[0]))
}

func TestResolveReferencesFetchesLocalPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/ref.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	e, _, _, up := newTestEngine(t)
	e.BaseURL = srv.URL

	resolved := e.ResolveReferences(context.Background(), []string{"/assets/ref.png"})
	require.Len(t, resolved, 1)
	assert.True(t, up.IsDurableURL(resolved[0]))
}

func TestResolveReferencesDropsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e, _, _, _ := newTestEngine(t)
	e.BaseURL = srv.URL

	// A failing local ref is dropped; the rest of the batch survives in order.
	resolved := e.ResolveReferences(context.Background(), []string{
		"https://keep.example/a.png",
		"/missing.png",
		"https://keep.example/b.png",
	})
	assert.Equal(t, []string{"https://keep.example/a.png", "https://keep.example/b.png"}, resolved)
}

func TestResolveReferencesFetchesTransientURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	e, _, _, up := newTestEngine(t)

	// http:// URLs are not trusted as durable; they are fetched and
	// re-uploaded like blob references.
	resolved := e.ResolveReferences(context.Background(), []string{srv.URL + "/tmp/xyz"})
	require.Len(t, resolved, 1)
	assert.True(t, up.IsDurableURL(resolved[0]))
}

func TestDecodeDataURLBase64(t *testing.T) {
	data, contentType, err := decodeDataURL("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestDecodeDataURLPlainText(t *testing.T) {
	data, contentType, err := decodeDataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
	assert.Equal(t, "text/plain", contentType)
}

func TestDecodeDataURLMalformed(t *testing.T) {
	_, _, err := decodeDataURL("data:image/png;base64")
	assert.Error(t, err)

	_, _, err = decodeDataURL("data:image/png;base64,not-base64!!!")
	assert.Error(t, err)
}

func TestReferenceFilename(t *testing.T) {
	name := referenceFilename("image/png")
	assert.True(t, strings.HasPrefix(name, "reference-"))
	assert.True(t, strings.HasSuffix(name, ".png"))
}
