// registration/storage/http_store_test.go
package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStorePut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "preset-1", r.FormValue("upload_preset"))
		assert.Equal(t, "teams/t1/payment", r.FormValue("public_id"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-image"), data)

		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://cdn.example.com/teams/t1/payment.png",
			"public_id":  "teams/t1/payment",
		})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, "preset-1", time.Second)
	obj, err := store.Put(context.Background(), "teams/t1/payment", "image/png", []byte("fake-image"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/teams/t1/payment.png", obj.URL)
	assert.Equal(t, "teams/t1/payment", obj.Key)
}

func TestHTTPStorePutRejectsBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, "preset-1", time.Second)
	_, err := store.Put(context.Background(), "k", "image/png", []byte("x"))
	assert.Error(t, err)
}

func TestHTTPStoreDelete(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotKey = r.FormValue("public_id")
	}))
	defer server.Close()

	store := NewHTTPStore(server.URL, "preset-1", time.Second)
	require.NoError(t, store.Delete(context.Background(), "teams/t1/payment"))
	assert.Equal(t, "teams/t1/payment", gotKey)
}

func TestHTTPStoreUnreachableIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	store := NewHTTPStore(server.URL, "preset-1", time.Second)
	_, err := store.Put(context.Background(), "k", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, store.Delete(context.Background(), "k"), ErrUnavailable)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	obj, err := store.Put(ctx, "teams/t1/idcard", "image/png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "mem://teams/t1/idcard", obj.URL)
	assert.True(t, store.Has("teams/t1/idcard"))

	require.NoError(t, store.Delete(ctx, "teams/t1/idcard"))
	assert.False(t, store.Has("teams/t1/idcard"))
	// Deleting an unknown key is not an error.
	require.NoError(t, store.Delete(ctx, "missing"))
}
