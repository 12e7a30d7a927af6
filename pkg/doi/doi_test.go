package doi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	valid := []string{"10.1000/182", "10.5555/JNL-2026-00001", "10.123456789/a.b_c;(d)/e:f", "10.5555/jnl-2026-00001"}
	for _, v := range valid {
		assert.True(t, Valid(v), v)
	}
	invalid := []string{"", "10.123/abc", "10.1234567890/abc", "11.1234/abc", "10.1234/", "10.1234/with space", "doi:10.1234/abc"}
	for _, v := range invalid {
		assert.False(t, Valid(v), v)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "10.1234/abc", Normalize(" https://doi.org/10.1234/abc "))
	assert.Equal(t, "10.1234/abc", Normalize("DOI:10.1234/abc"))
	assert.Equal(t, "10.1234/abc", Normalize("10.1234/abc"))
}

func TestLocalRegistrar(t *testing.T) {
	reg := NewLocalRegistrar("10.5555/")
	value, err := reg.Assign(context.Background(), Metadata{ManuscriptID: "JNL-2026-00007"})
	require.NoError(t, err)
	assert.Equal(t, "10.5555/jnl-2026-00007", value)

	_, err = reg.Assign(context.Background(), Metadata{})
	assert.Error(t, err)
}

func TestHTTPRegistrarSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		var meta Metadata
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		_ = json.NewEncoder(w).Encode(map[string]string{"doi": "10.5555/" + meta.ManuscriptID})
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "token-1", time.Second)
	value, err := reg.Assign(context.Background(), Metadata{ManuscriptID: "abc-1"})
	require.NoError(t, err)
	assert.Equal(t, "10.5555/abc-1", value)
}

func TestHTTPRegistrarFailureCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"deposit queue full"}`))
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "", time.Second)
	_, err := reg.Assign(context.Background(), Metadata{ManuscriptID: "abc-1"})
	require.Error(t, err)
	assert.Equal(t, "registrar responded 503: deposit queue full", err.Error())
}

func TestHTTPRegistrarKeepsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway login</html>`))
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "", time.Second)
	_, err := reg.Assign(context.Background(), Metadata{ManuscriptID: "abc-1"})
	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
	assert.True(t, strings.HasPrefix(err.Error(), "decode registrar response (status 200"), err.Error())
	assert.Contains(t, err.Error(), "gateway login")
}

func TestHTTPRegistrarFailureWithPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := NewHTTPRegistrar(srv.URL, "", time.Second)
	_, err := reg.Assign(context.Background(), Metadata{ManuscriptID: "abc-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registrar responded 502: upstream down")
	assert.Contains(t, err.Error(), "undecodable body")
}
