package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/handlers"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/custom", func(c *fiber.Ctx) error {
		return &types.CustomError{Code: 403, Message: "nope", Type: "authorization.user"}
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "too big")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	cases := []struct {
		path    string
		status  int
		message string
		kind    string
	}{
		{"/custom", 403, "nope", "authorization.user"},
		{"/fiber", 413, "too big", "unknown"},
		{"/plain", 500, "boom", "unknown"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tc.message, body["message"], tc.path)
		assert.Equal(t, tc.kind, body["type"], tc.path)
		assert.Equal(t, false, body["ok"], tc.path)
	}
}

func TestAuthUserSetsActor(t *testing.T) {
	var gotRoles []string
	validate := func(c *fiber.Ctx, cookie string, roles []string) (*services.Actor, error) {
		gotRoles = roles
		if cookie != "good" {
			return nil, errors.New("bad cookie")
		}
		return &services.Actor{ID: "u1", Email: "u1@example.com"}, nil
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/me", AuthUser(validate), func(c *fiber.Ctx) error {
		return c.JSON(c.Locals(handlers.ActorKey))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bad"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var actor services.Actor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
	assert.Equal(t, "u1", actor.ID)
	assert.Equal(t, []string{"user"}, gotRoles)
}

func TestVersionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(VersionMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("apiVersion").(string))
	})

	for header, want := range map[string]string{"": "1.0.0", "1.0": "1.0.0", "v1": "1.0.0", "2.0.0": "2.0.0"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("X-Api-Version", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body), "header %q", header)
		assert.Equal(t, APIVersion, resp.Header.Get("X-Api-Version"))
	}
}
