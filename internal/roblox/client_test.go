package roblox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, BreakerMaxFailures: 2}, nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestLookupUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user-info", r.URL.Path)
		assert.Equal(t, "builderman", r.URL.Query().Get("username"))
		writeJSON(w, 200, `{"success":true,"id":156,"username":"builderman","displayName":"Builder Man","avatar":"https://cdn/a.png"}`)
	})

	u, err := c.LookupUser(context.Background(), "builderman")
	require.NoError(t, err)
	assert.Equal(t, int64(156), u.ID)
	assert.Equal(t, "Builder Man", u.DisplayName)
	require.NotNil(t, u.AvatarURL)
	assert.Equal(t, "https://cdn/a.png", *u.AvatarURL)
}

func TestLookupUser_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"success":false,"message":"User not found"}`)
	})

	_, err := c.LookupUser(context.Background(), "nobody")

	require.ErrorIs(t, err, ErrNotFound)
	var rerr *ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "user-info", rerr.Op)
	assert.Equal(t, "User not found", rerr.Message)
}

func TestLookupUser_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 502, `bad gateway`)
	})

	_, err := c.LookupUser(context.Background(), "builderman")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookupUser_InvalidBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `<html>`)
	})

	_, err := c.LookupUser(context.Background(), "builderman")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUserPlaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("userId"))
		writeJSON(w, 200, `{"success":true,"data":[{"placeId":1,"universeId":10,"name":"Obby","visits":5,"thumbnailUrl":null}]}`)
	})

	places, err := c.UserPlaces(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, int64(10), places[0].UniverseID)
	assert.Nil(t, places[0].ThumbnailURL)
}

func TestUserPlaces_EmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true}`)
	})

	places, err := c.UserPlaces(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
}

func TestRobuxPricing(t *testing.T) {
	for _, body := range []string{
		`{"success":true,"data":{"pricePerHundred":13000}}`,
		`{"success":true,"data":{"pricePerHundred":"13000"}}`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/robux-pricing", r.URL.Path)
			writeJSON(w, 200, body)
		})

		rate, err := c.RobuxPricing(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "13000", rate.PricePerHundred.String())
	}
}

func TestRobuxPricing_RejectsZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"data":{"pricePerHundred":0}}`)
	})

	_, err := c.RobuxPricing(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheckGamepass(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9001", r.URL.Query().Get("universeId"))
		assert.Equal(t, "715", r.URL.Query().Get("expectedRobux"))
		writeJSON(w, 200, `{"success":true,"gamepass":{"id":77,"name":"Donate","price":715}}`)
	})

	res, err := c.CheckGamepass(context.Background(), 9001, 715)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(77), res.Gamepass.ID)
}

func TestCheckGamepass_Mismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":false,"message":"No gamepass priced 715","allGamepasses":[{"id":1,"name":"VIP","price":500}]}`)
	})

	res, err := c.CheckGamepass(context.Background(), 9001, 715)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No gamepass priced 715", res.Message)
	assert.Len(t, res.AllGamepasses, 1)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 503, `{}`)
	})

	for i := 0; i < 4; i++ {
		_, err := c.LookupUser(context.Background(), "builderman")
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 200, `{"success":false}`)
	})

	for i := 0; i < 4; i++ {
		_, err := c.LookupUser(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, int32(4), calls.Load())
}
