package localllm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsImageAsDataURI(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Response{Choices: []Choice{{Message: ResponseMessage{Content: `{"ingredients":["egg"]}`}}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "vision-test", srv.Client())
	out, err := c.Generate(context.Background(), "list ingredients", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, `{"ingredients":["egg"]}`, out)

	assert.Equal(t, "vision-test", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "list ingredients", got.Messages[0].Content[0].Text)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,AQID"))
}

func TestGenerateNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", srv.Client()).Generate(context.Background(), "p", nil, "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", srv.Client()).Generate(context.Background(), "p", nil, "image/jpeg")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "", nil)
	assert.Equal(t, DefaultURL, c.apiURL)
	assert.Equal(t, DefaultModel, c.model)
	assert.NotNil(t, c.httpClient)
}
