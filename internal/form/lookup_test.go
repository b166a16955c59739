package form_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blackwell-systems/libreq/internal/form"
)

func TestLookup_FailsSoft(t *testing.T) {
	dir := newFakeDirectory()
	dir.err = errOffline
	l := form.NewLookup(dir, nil)
	ctx := context.Background()

	groups, notice := l.Groups(ctx)
	assert.Empty(t, groups)
	assert.Equal(t, form.NoticeGroupsFailed, notice)

	students, notice := l.Students(ctx, 2, "")
	assert.Empty(t, students)
	assert.Equal(t, form.NoticeStudentsFailed, notice)

	_, notice = l.Students(ctx, 2, "Ива")
	assert.Equal(t, form.NoticeSearchFailed, notice)

	_, notice = l.Books(ctx, 2, "")
	assert.Equal(t, form.NoticeBooksFailed, notice)

	codes, notice := l.Copies(ctx, 9)
	assert.Nil(t, codes, "a failed lookup leaves the list unknown")
	assert.Equal(t, form.NoticeCopiesFailed, notice)
}

func TestLookup_Empty(t *testing.T) {
	l := form.NewLookup(newFakeDirectory(), nil)
	ctx := context.Background()

	_, notice := l.Students(ctx, 2, "Сидоров")
	assert.Equal(t, form.NoticeNoStudents, notice)

	_, notice = l.Books(ctx, 1, "")
	assert.Equal(t, form.NoticeNoBooks, notice)

	codes, notice := l.Copies(ctx, 404)
	assert.NotNil(t, codes)
	assert.Empty(t, codes)
	assert.Equal(t, form.NoticeNoCopies, notice)
}

func TestLookup_NeedsGroup(t *testing.T) {
	l := form.NewLookup(newFakeDirectory(), nil)

	_, notice := l.Students(context.Background(), 0, "Ива")
	assert.Equal(t, form.NoticePickGroup, notice)
	_, notice = l.Books(context.Background(), 0, "")
	assert.Equal(t, form.NoticePickGroup, notice)
}

func TestLookup_Results(t *testing.T) {
	l := form.NewLookup(newFakeDirectory(), nil)
	ctx := context.Background()

	groups, notice := l.Groups(ctx)
	assert.Empty(t, notice)
	assert.Len(t, groups, 2)

	students, notice := l.Students(ctx, 2, "")
	assert.Empty(t, notice)
	assert.Len(t, students, 2)

	codes, notice := l.Copies(ctx, 9)
	assert.Empty(t, notice)
	assert.Equal(t, []string{"01", "02", "03"}, codes)
}
