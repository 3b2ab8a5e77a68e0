package botflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botflow/pkg/botflow"
)

// TestLibraryRegisterAndGet verifies storage and clone isolation.
func TestLibraryRegisterAndGet(t *testing.T) {
	lib := botflow.NewLibrary()
	original := supportFlow()

	require.NoError(t, lib.Register("support", original))

	// Later edits to the original must not leak into the library.
	original.RemoveNode("menu")

	got, ok := lib.Get("support")
	require.True(t, ok)
	_, found := got.FindNode("menu")
	assert.True(t, found)

	// And edits to a handed-out clone must not leak back.
	got.RemoveNode("end-1")
	again, _ := lib.Get("support")
	_, found = again.FindNode("end-1")
	assert.True(t, found)
}

// TestLibraryRegisterNil verifies the nil-flow error.
func TestLibraryRegisterNil(t *testing.T) {
	lib := botflow.NewLibrary()
	assert.ErrorIs(t, lib.Register("x", nil), botflow.ErrNoFlow)
}

// TestLibraryReplace verifies re-registering under the same name.
func TestLibraryReplace(t *testing.T) {
	lib := botflow.NewLibrary()
	require.NoError(t, lib.Register("bot", supportFlow()))

	replacement := supportFlow()
	replacement.WelcomeMessage = "v2"
	require.NoError(t, lib.Register("bot", replacement))

	got, ok := lib.Get("bot")
	require.True(t, ok)
	assert.Equal(t, "v2", got.WelcomeMessage)
	assert.Equal(t, 1, lib.Len())
}

// TestLibraryMissAndRemove verifies lookup misses and removal.
func TestLibraryMissAndRemove(t *testing.T) {
	lib := botflow.NewLibrary()
	require.NoError(t, lib.Register("bot", supportFlow()))

	_, ok := lib.Get("nope")
	assert.False(t, ok)
	assert.False(t, lib.Has("nope"))
	assert.True(t, lib.Has("bot"))

	lib.Remove("bot")
	assert.False(t, lib.Has("bot"))
	assert.Empty(t, lib.Names())
}

// TestLibraryNames verifies name listing.
func TestLibraryNames(t *testing.T) {
	lib := botflow.NewLibrary()
	require.NoError(t, lib.Register("a", supportFlow()))
	require.NoError(t, lib.Register("b", supportFlow()))

	assert.ElementsMatch(t, []string{"a", "b"}, lib.Names())
}
