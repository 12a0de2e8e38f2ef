package inform

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPEmailSender(t *testing.T) {
	_, err := NewHTTPEmailSender(viper.New())
	assert.NotNil(t, err)
	c := viper.New()
	c.Set("smtp.fakeUrl", "http://olia")
	s, err := NewHTTPEmailSender(c)
	require.Nil(t, err)
	assert.Equal(t, "http://olia", s.url)
	assert.True(t, s.timeout > 0)
}

func TestHTTPEmailSender_Send(t *testing.T) {
	gotCh := make(chan httpEmail, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got httpEmail
		_ = json.NewDecoder(r.Body).Decode(&got)
		gotCh <- got
	}))
	defer srv.Close()
	c := viper.New()
	c.Set("smtp.fakeUrl", srv.URL)
	s, err := NewHTTPEmailSender(c)
	require.Nil(t, err)

	err = s.Send(&email.Email{To: []string{"a@a.lt"}, Subject: "Dubbed", Text: []byte("ready")})
	require.Nil(t, err)
	assert.Equal(t, httpEmail{To: []string{"a@a.lt"}, Subject: "Dubbed", Text: "ready"}, <-gotCh)
}

func TestHTTPEmailSender_Fail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := viper.New()
	c.Set("smtp.fakeUrl", srv.URL)
	s, err := NewHTTPEmailSender(c)
	require.Nil(t, err)
	assert.NotNil(t, s.Send(&email.Email{To: []string{"a@a.lt"}}))
}
