package devserver_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/libreq/internal/devserver"
	"github.com/blackwell-systems/libreq/internal/directory"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fx, err := devserver.SampleFixtures()
	require.NoError(t, err)
	return devserver.New(fx, nil).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, h http.Handler, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/request-book", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.ServeHTTP(w, req)
	return w
}

func TestGetBooks_FiltersByGroupEligibility(t *testing.T) {
	h := newHandler(t)
	w := get(t, h, "/get-books/1")
	require.Equal(t, http.StatusOK, w.Code)

	var books []directory.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, 101, books[0].ID)
	assert.Equal(t, 5, books[0].Available)
	assert.Equal(t, "101(01-05)", books[0].CopyRange())
}

func TestGetBooks_UnknownGroup(t *testing.T) {
	w := get(t, newHandler(t), "/get-books/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchStudents_EmptyQueryReturnsNothing(t *testing.T) {
	w := get(t, newHandler(t), "/search-students?q=&group_id=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSearchStudents_CaseInsensitiveSubstring(t *testing.T) {
	w := get(t, newHandler(t), "/search-students?q=%D0%B0%D0%BD%D0%BD%D0%B0&group_id=1") // "анна"
	require.Equal(t, http.StatusOK, w.Code)

	var students []directory.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, 2, students[0].ID)
	assert.Equal(t, "ПО-101", students[0].Group)
}

func TestRequestBook_QuantityTakesLowestCopies(t *testing.T) {
	h := newHandler(t)
	w := postForm(t, h, map[string]string{"group_id": "1", "student_id": "1", "book_id": "102", "quantity": "2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Запрос #1 отправлен!", w.Body.String())

	w = get(t, h, "/get-available-copies/102")
	assert.JSONEq(t, `["102-03"]`, w.Body.String())

	w = get(t, h, "/check-status?request_id=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "102-01, 102-02")
}

func TestRequestBook_CopyCodes(t *testing.T) {
	h := newHandler(t)
	w := postForm(t, h, map[string]string{"student_id": "1", "book_id": "101", "copy_codes": "101-04,101-02"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = postForm(t, h, map[string]string{"student_id": "2", "book_id": "101", "copy_codes": "101-02"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ошибка: Экземпляр 101-02 недоступен", w.Body.String())
}

func TestRequestBook_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"unknown student", map[string]string{"student_id": "77", "book_id": "101", "quantity": "1"}, "Ошибка: Студент не найден"},
		{"unknown book", map[string]string{"student_id": "1", "book_id": "999", "quantity": "1"}, "Ошибка: Книга не найдена"},
		{"wrong group", map[string]string{"student_id": "4", "book_id": "101", "quantity": "1"}, "Ошибка: Эта книга не предназначена для вашей группы"},
		{"zero quantity", map[string]string{"student_id": "1", "book_id": "101", "quantity": "0"}, "Ошибка: Количество должно быть больше 0"},
		{"too many", map[string]string{"student_id": "1", "book_id": "102", "quantity": "9"}, "Ошибка: Доступно только 3 экземпляров"},
		{"mismatch", map[string]string{"student_id": "1", "book_id": "102", "quantity": "2", "copy_codes": "102-01"}, "Ошибка: Количество (2) не совпадает с числом экземпляров (1)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postForm(t, newHandler(t), tc.fields)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestRequestID_Echoed(t *testing.T) {
	h := newHandler(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/get-groups", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = get(t, h, "/get-groups")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestParseFixtures_UnknownGroup(t *testing.T) {
	_, err := devserver.ParseFixtures([]byte("groups: []\nstudents:\n  - {id: 1, name: x, group_id: 4}\n"))
	assert.Error(t, err)
}
