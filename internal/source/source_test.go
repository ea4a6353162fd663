package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	src := FromPath(path)
	assert.Equal(t, path, src.Name())

	data, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestFromPathMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	_, err := FromPath(missing).Open(context.Background())
	require.Error(t, err)

	var notFound *ErrNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, missing, notFound.Path)
	assert.Contains(t, err.Error(), missing)
}

func TestFromPathEmpty(t *testing.T) {
	_, err := FromPath("").Open(context.Background())
	var param *ErrParam
	require.True(t, errors.As(err, &param))
}

func TestFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, "x,y\n1,2\n")
	}))
	defer server.Close()

	src := FromURL(server.URL, DefaultRequestOptions())
	assert.Equal(t, server.URL, src.Name())

	data, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(data))
}

func TestFromURLSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	opts := DefaultRequestOptions()
	opts.Header = http.Header{"Authorization": []string{"Bearer token"}}
	_, err := ReadAll(context.Background(), FromURL(server.URL, opts))
	require.NoError(t, err)
}

func TestFromURLNonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "accepted is still an error", status: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := FromURL(server.URL, DefaultRequestOptions()).Open(context.Background())
			require.Error(t, err)

			var httpErr *ErrHTTPStatus
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, server.URL, httpErr.URL)
		})
	}
}

func TestFromURLTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := FromURL(server.URL, DefaultRequestOptions()).Open(context.Background())
	require.Error(t, err)

	var transport *ErrTransport
	require.True(t, errors.As(err, &transport))
}

func TestFromBytesReopens(t *testing.T) {
	src := FromBytes([]byte("a\n1\n"))
	assert.Equal(t, "buffer", src.Name())

	for i := 0; i < 2; i++ {
		data, err := ReadAll(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, "a\n1\n", string(data))
	}
}

func TestFromReaderSingleUse(t *testing.T) {
	src := FromReader(strings.NewReader("a\n1\n"))
	assert.Equal(t, "stream", src.Name())

	data, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	_, err = src.Open(context.Background())
	require.Error(t, err)

	var param *ErrParam
	require.True(t, errors.As(err, &param))
	assert.Contains(t, err.Error(), "consumed")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "http URL", input: "http://example.com/data.csv", want: "*source.urlSource"},
		{name: "https URL", input: "https://example.com/data.csv", want: "*source.urlSource"},
		{name: "file URL", input: "file:///tmp/data.csv", want: "*source.pathSource"},
		{name: "bare path", input: "testdata/data.csv", want: "*source.pathSource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Resolve(tt.input, DefaultRequestOptions())
			switch tt.want {
			case "*source.urlSource":
				_, ok := src.(*urlSource)
				assert.True(t, ok)
			case "*source.pathSource":
				ps, ok := src.(*pathSource)
				require.True(t, ok)
				assert.False(t, strings.HasPrefix(ps.path, "file://"))
			}
		})
	}
}
