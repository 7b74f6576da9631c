package ittour

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbot/models"
)

func testQuery(t *testing.T) models.SearchQuery {
	t.Helper()
	q, err := BuildQuery(baseSlots(), 1, testDefaults(), today)
	require.NoError(t, err)
	return q
}

func serve(t *testing.T, status int, body string) (*Client, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r.Clone(context.Background())
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL+"/", "secret-token", "uk", 0), &seen
}

func TestClientSearchSuccess(t *testing.T) {
	body := `{"offers":[
		{"hotel_id":101,"hotel":"Sunrise","hotel_rating":"4","date_from":"2026-12-10","duration":7,
		 "prices":{"1":850,"2":"35000"},"hotel_images":[{"full":"https://img/1.jpg"}]},
		"garbage",
		{"hotel_id":"102","name":"Coral","prices":[]}
	],"has_more_pages":true,"page":1}`
	c, seen := serve(t, http.StatusOK, body)

	res, err := c.Search(context.Background(), testQuery(t))
	require.NoError(t, err)

	assert.Equal(t, "/module/search-list", seen.URL.Path)
	assert.Equal(t, "Bearer secret-token", seen.Header.Get("Authorization"))
	assert.Equal(t, "uk", seen.Header.Get("Accept-Language"))
	assert.Equal(t, "338", seen.URL.Query().Get("country"))
	assert.Equal(t, "1", seen.URL.Query().Get("hotel_info"))

	require.Len(t, res.Offers, 2)
	assert.True(t, res.HasMorePages)
	assert.Equal(t, 1, res.Page)

	first := res.Offers[0]
	assert.Equal(t, "101", string(first.HotelID))
	assert.Equal(t, "7", first.Nights())
	price, ok := first.Prices.Lookup(models.CurrencyUAH)
	assert.True(t, ok)
	assert.Equal(t, 35000.0, price)
	assert.Equal(t, "https://img/1.jpg", first.HotelImages.First())

	assert.Equal(t, "Coral", res.Offers[1].HotelName())
	assert.Empty(t, res.Offers[1].Prices)
}

func TestClientSearchErrorShapes(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		code      int
		desc      string
		malformed bool
	}{
		{"object", 200, `{"error":"Bad params","error_desc":"country","error_code":101}`, 101, "country", false},
		{"single element list", 200, `[{"error":"Auth","error_desc":"token","error_code":100}]`, 100, "token", false},
		{"code field", 200, `{"error":"x","code":"300"}`, 300, "", false},
		{"nested error", 200, `{"error":{"code":202,"message":"adults"}}`, 202, "adults", false},
		{"list", 200, `[1,2,3]`, CodeUnknown, "List response", true},
		{"string", 200, `"proxy says no"`, CodeUnknown, "proxy says no", true},
		{"not json", 502, `<html>bad gateway</html>`, CodeUnknown, "HTTP 502, cannot decode JSON", true},
		{"unauthorized without code", 401, `{"error":"Unauthorized"}`, CodeUnknown, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := serve(t, tc.status, tc.body)
			_, err := c.Search(context.Background(), testQuery(t))

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "got %v", err)
			assert.Equal(t, tc.code, upErr.Code)
			assert.Equal(t, tc.desc, upErr.Description)
			assert.Equal(t, tc.malformed, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestClientSearchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(nil, srv.URL, "t", "uk", 20*time.Millisecond)
	_, err := c.Search(context.Background(), testQuery(t))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestClientSearchUsesQueryPageWhenMissing(t *testing.T) {
	c, seen := serve(t, http.StatusOK, `{"offers":[]}`)
	q := testQuery(t)
	q.Page = 3

	res, err := c.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)
	assert.Equal(t, "3", seen.URL.Query().Get("page"))
	assert.Empty(t, res.Offers)
}
