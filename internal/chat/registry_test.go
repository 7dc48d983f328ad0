package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonebot/internal/tone"
)

func TestGetOrCreate_CreatesWithDefaults(t *testing.T) {
	reg := NewRegistry()

	conv := reg.GetOrCreate("abc")
	assert.Equal(t, DefaultTone, conv.CurrentTone)
	assert.Equal(t, DefaultTitle, conv.Title)
	assert.False(t, conv.ToneSet, "implicit creation should await a tone choice")

	// Second lookup returns the same instance
	assert.Same(t, conv, reg.GetOrCreate("abc"))
}

func TestCreate_DuplicateID(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.Create("abc", "serious", "Work")
	require.NoError(t, err)
	first.Append(RoleUser, "hello")

	_, err = reg.Create("abc", "poetic", "Other")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// The first conversation is unaffected by the failed create
	got, err := reg.Get("abc")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, "serious", got.CurrentTone)
	assert.Len(t, got.Messages, 2)
}

func TestCreate_InvalidTone(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("abc", "mysterious", "X")
	assert.ErrorIs(t, err, tone.ErrInvalid)

	_, err = reg.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("abc", "funny", "X")
	require.NoError(t, err)

	require.NoError(t, reg.Delete("abc"))

	_, err = reg.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, reg.Delete("abc"), ErrNotFound)
}

func TestRename_ChangesOnlyTitle(t *testing.T) {
	reg := NewRegistry()
	conv, err := reg.Create("abc", "poetic", "Before")
	require.NoError(t, err)
	conv.Append(RoleUser, "hello")

	require.NoError(t, reg.Rename("abc", "After"))

	assert.Equal(t, "After", conv.Title)
	assert.Equal(t, "poetic", conv.CurrentTone)
	assert.Len(t, conv.Messages, 2)

	err = reg.Rename("missing", "X")
	assert.ErrorIs(t, err, ErrNotFound)
	// Carries the lookup's wrapping, with the id stated exactly once
	assert.EqualError(t, err, `rename: conversation "missing": conversation not found`)
}

func TestList_InsertionOrder(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("one", "funny", "First")
	require.NoError(t, err)
	_, err = reg.Create("two", "serious", "Second")
	require.NoError(t, err)
	reg.GetOrCreate("three")

	assert.Equal(t, []Summary{
		{ID: "one", Title: "First", Tone: "funny"},
		{ID: "two", Title: "Second", Tone: "serious"},
		{ID: "three", Title: DefaultTitle, Tone: DefaultTone},
	}, reg.List())

	require.NoError(t, reg.Delete("two"))
	assert.Equal(t, []Summary{
		{ID: "one", Title: "First", Tone: "funny"},
		{ID: "three", Title: DefaultTitle, Tone: DefaultTone},
	}, reg.List())
}
