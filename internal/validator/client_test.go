package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassesThroughReport(t *testing.T) {
	report := `{"notices":[{"code":"missing_timepoint","severity":"WARNING"}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/validate", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "proj-1.zip", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(report))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Validate(context.Background(), "proj-1.zip", []byte("feed bytes"))
	require.NoError(t, err)
	assert.JSONEq(t, report, string(got))
}

func TestValidateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validator exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Validate(context.Background(), "feed.zip", []byte("feed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "validator exploded")
}

func TestValidateNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.Validate(context.Background(), "feed.zip", []byte("feed"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	_, err := c.Validate(context.Background(), "feed.zip", []byte("feed"))
	assert.NoError(t, err)
}
