package directory_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/libreq/internal/devserver"
	"github.com/blackwell-systems/libreq/internal/directory"
)

func newDevClient(t *testing.T) *directory.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fx, err := devserver.SampleFixtures()
	require.NoError(t, err)
	srv := httptest.NewServer(devserver.New(fx, nil).Handler())
	t.Cleanup(srv.Close)
	return directory.New(srv.URL, 5*time.Second)
}

func TestListGroups_SortedByCollation(t *testing.T) {
	c := newDevClient(t)
	groups, err := c.ListGroups(context.Background())
	require.NoError(t, err)

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	// Cyrillic А sorts before П in Russian collation.
	assert.Equal(t, []string{"АҚЖ-214", "ПО-101", "ПО-202"}, names)
}

func TestListBooks_RequiresGroup(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c := directory.New(srv.URL, time.Second)
	_, err := c.ListBooks(context.Background(), 0)
	assert.ErrorIs(t, err, directory.ErrMissingGroup)
	_, err = c.FindStudents(context.Background(), 0, "ив")
	assert.ErrorIs(t, err, directory.ErrMissingGroup)
	assert.Zero(t, calls, "no request may be sent without a group")
}

func TestFindStudents_EmptyQueryListsGroup(t *testing.T) {
	c := newDevClient(t)
	all, err := c.FindStudents(context.Background(), 1, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := c.FindStudents(context.Background(), 1, "Иван")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, 1, some[0].ID)
}

func TestSearchBooks(t *testing.T) {
	c := newDevClient(t)
	all, err := c.SearchBooks(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := c.SearchBooks(context.Background(), 1, "семакин")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 102, hits[0].ID)
}

func TestListAvailableCopies_Sorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-available-copies/7", r.URL.Path)
		_, _ = io.WriteString(w, `["7-10","7-02","7-01"]`)
	}))
	defer srv.Close()

	codes, err := directory.New(srv.URL, time.Second).ListAvailableCopies(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"7-01", "7-02", "7-10"}, codes)
}

func TestLookup_NotFoundAndServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/get-books/") {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := directory.New(srv.URL, time.Second)
	_, err := c.ListBooks(context.Background(), 3)
	assert.ErrorIs(t, err, directory.ErrNotFound)

	_, err = c.ListGroups(context.Background())
	assert.ErrorIs(t, err, directory.ErrServer)
	assert.Contains(t, err.Error(), "boom")
}

func TestSubmitRequest_ParsesRequestID(t *testing.T) {
	c := newDevClient(t)
	receipt, err := c.SubmitRequest(context.Background(), directory.BookRequest{
		GroupID: 1, StudentID: 2, BookID: 101, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", receipt.RequestID)
	assert.Equal(t, "Запрос #1 отправлен!", receipt.Message)
}

func TestSubmitRequest_Rejected(t *testing.T) {
	c := newDevClient(t)
	_, err := c.SubmitRequest(context.Background(), directory.BookRequest{
		GroupID: 1, StudentID: 1, BookID: 101, CopyCodes: []string{"999-01"},
	})
	var rejected *directory.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "Ошибка: Экземпляр 999-01 недоступен", rejected.Error())
}

func TestSubmitRequest_EmptyErrorBodyIsSynthesized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := directory.New(srv.URL, time.Second).SubmitRequest(context.Background(), directory.BookRequest{StudentID: 1, BookID: 1, Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "Ошибка сервера (502)", err.Error())
}

func TestSubmitRequest_WorkedExampleBody(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, "Запрос #42 отправлен!")
	}))
	defer srv.Close()

	c := directory.New(srv.URL, time.Second)
	receipt, err := c.SubmitRequest(context.Background(), directory.BookRequest{
		GroupID: 2, StudentID: 5, BookID: 9, Quantity: 2, CopyCodes: []string{"01", "02"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"group_id": "2", "student_id": "5", "book_id": "9", "quantity": "2", "copy_codes": "01,02",
	}, got)
	assert.Equal(t, "42", receipt.RequestID)
	assert.Equal(t, srv.URL+"/check-status?request_id=42", c.StatusURL(receipt.RequestID))
}

func TestParseRequestID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Запрос #42 отправлен!", "42"},
		{"✅ Запрос отправлен!", ""},
		{"#7", "7"},
		{"# 8", ""},
	}
	for _, c := range cases {
		if got := directory.ParseRequestID(c.in); got != c.want {
			t.Errorf("ParseRequestID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
