package static

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSinglePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		fmt.Fprint(w, `<ul><li class="job">Engineer A</li><li class="job">Engineer B</li></ul>`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "li.job", 1, time.Second)
	titles, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineer A", "Engineer B"}, titles)
}

func TestFetchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "", 1, time.Second)
	titles, err := f.Fetch(context.Background(), srv.URL)
	assert.EqualError(t, err, "unexpected status: 502")
	assert.Nil(t, titles)
}

func TestFetchMultiplePagesKeepsPageOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<div class="jss-g13">Engineer %s</div>`, r.URL.Query().Get("page"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "", 4, time.Second)
	titles, err := f.Fetch(context.Background(), srv.URL+"/jobs?page={page}")
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineer 1", "Engineer 2", "Engineer 3", "Engineer 4"}, titles)
}

func TestFetchLaterPageFailureFailsWholeFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<div class="jss-g13">Engineer A</div>`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "", 2, time.Second)
	titles, err := f.Fetch(context.Background(), srv.URL+"?page={page}")
	assert.EqualError(t, err, "page 2: unexpected status: 500")
	assert.Nil(t, titles)
}

func TestFetchFirstPageFailureFailsWholeFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "", 3, time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"?page={page}")
	assert.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "", 1, 50*time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
