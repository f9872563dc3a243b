package utils

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/err", func(c *fiber.Ctx) error {
		return ErrorResponse(c, "boom", fiber.StatusInternalServerError, "server")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return ValidationErrorResponse(c, "invalid answers", map[string]string{"email": "must be a valid email address"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/err?x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body ErrorResponseStruct
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Ok)
	assert.Equal(t, "boom", body.Message)
	assert.Equal(t, "/err?x=1", body.URL)
	assert.Equal(t, "server", body.Type)
	assert.NotEmpty(t, body.Timestamp)

	resp, err = app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	body = ErrorResponseStruct{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "must be a valid email address", body.Fields["email"])
}

func TestPing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	assert.NoError(t, PingAuthorizer("http://127.0.0.1:"+strconv.Itoa(port)))
	assert.NoError(t, PingSMTP("127.0.0.1", port))

	assert.Error(t, PingService("://bad", 0))
}

func TestServiceAddress(t *testing.T) {
	cases := map[string]string{
		"http://authorizer":      "authorizer:80",
		"https://auth.example":   "auth.example:443",
		"smtps://mail.example":   "mail.example:465",
		"http://authorizer:8080": "authorizer:8080",
		"ftp://files.example":    "files.example:80",
	}
	for in, want := range cases {
		got, err := serviceAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := serviceAddress("authorizer:8080/path")
	assert.Error(t, err)
}
