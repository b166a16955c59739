package directory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListGroups returns every group, sorted by name.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := c.getJSON(ctx, c.url(nil, "get-groups"), &groups); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	SortGroups(groups, c.collation)
	return groups, nil
}

// ListBooks returns the books available to a group.
func (c *Client) ListBooks(ctx context.Context, groupID int) ([]Book, error) {
	if groupID <= 0 {
		return nil, ErrMissingGroup
	}
	var books []Book
	if err := c.getJSON(ctx, c.url(nil, "get-books", strconv.Itoa(groupID)), &books); err != nil {
		return nil, fmt.Errorf("list books for group %d: %w", groupID, err)
	}
	return books, nil
}

// SearchBooks matches books of a group against query. An empty query
// returns the group's full list.
func (c *Client) SearchBooks(ctx context.Context, groupID int, query string) ([]Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.ListBooks(ctx, groupID)
	}
	if groupID <= 0 {
		return nil, ErrMissingGroup
	}
	q := url.Values{"q": {query}, "group_id": {strconv.Itoa(groupID)}}
	var books []Book
	if err := c.getJSON(ctx, c.url(q, "search-books"), &books); err != nil {
		return nil, fmt.Errorf("search books %q: %w", query, err)
	}
	return books, nil
}

// FindStudents returns the students of a group whose name matches query.
// An empty query returns the whole group.
func (c *Client) FindStudents(ctx context.Context, groupID int, query string) ([]Student, error) {
	if groupID <= 0 {
		return nil, ErrMissingGroup
	}
	query = strings.TrimSpace(query)

	var (
		students []Student
		u        string
	)
	if query == "" {
		u = c.url(nil, "get-students", strconv.Itoa(groupID))
	} else {
		u = c.url(url.Values{"q": {query}, "group_id": {strconv.Itoa(groupID)}}, "search-students")
	}
	if err := c.getJSON(ctx, u, &students); err != nil {
		return nil, fmt.Errorf("find students %q: %w", query, err)
	}
	return students, nil
}

// ListAvailableCopies returns the copy codes of a book that can be lent,
// ordered by increasing instance number.
func (c *Client) ListAvailableCopies(ctx context.Context, bookID int) ([]string, error) {
	if bookID <= 0 {
		return nil, ErrMissingBook
	}
	var codes []string
	if err := c.getJSON(ctx, c.url(nil, "get-available-copies", strconv.Itoa(bookID)), &codes); err != nil {
		return nil, fmt.Errorf("list copies for book %d: %w", bookID, err)
	}
	SortCopyCodes(codes)
	return codes, nil
}

// StatusURL returns the page where a submitted request can be tracked.
func (c *Client) StatusURL(requestID string) string {
	return c.url(url.Values{"request_id": {requestID}}, "check-status")
}
