package directory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var requestIDRe = regexp.MustCompile(`#(\d+)`)

// ParseRequestID extracts the numeric id from a confirmation such as
// "Запрос #42 отправлен!". It returns "" when there is none.
func ParseRequestID(text string) string {
	m := requestIDRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// EncodeRequest writes r as a multipart form and returns the body and its
// content type.
func EncodeRequest(r BookRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"group_id", strconv.Itoa(r.GroupID)},
		{"student_id", strconv.Itoa(r.StudentID)},
		{"book_id", strconv.Itoa(r.BookID)},
	}
	if r.Quantity > 0 {
		fields = append(fields, [2]string{"quantity", strconv.Itoa(r.Quantity)})
	}
	if len(r.CopyCodes) > 0 {
		fields = append(fields, [2]string{"copy_codes", strings.Join(r.CopyCodes, ",")})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// SubmitRequest posts a book request. A non-2xx reply is returned as a
// *RejectedError carrying the backend's text.
func (c *Client) SubmitRequest(ctx context.Context, r BookRequest) (*Receipt, error) {
	body, contentType, err := EncodeRequest(r)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(nil, "request-book"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}
	text := strings.TrimSpace(string(raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RejectedError{Status: resp.StatusCode, Body: text}
	}
	return &Receipt{RequestID: ParseRequestID(text), Message: text}, nil
}
