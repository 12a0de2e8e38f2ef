package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Live(t *testing.T) {
	e := New("dubly_test")
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/live", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, `{"service":"OK"}`, resp.Body.String())
}

func TestNew_Twice(t *testing.T) {
	assert.NotPanics(t, func() {
		New("dubly_test2")
		New("dubly_test2")
	})
	assert.Same(t, metrics("dubly_test2"), metrics("dubly_test2"))
}

func TestNew_Metrics(t *testing.T) {
	e := New("dubly_test3")
	resp := httptest.NewRecorder()
	e.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestServe_WrongPort(t *testing.T) {
	assert.NotNil(t, Serve(New("dubly_test4"), 0, Timeouts{}))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, defaultTimeout, orDefault(0))
	assert.Equal(t, time.Minute, orDefault(time.Minute))
}
