package advisory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsKeepMemoAcrossLookups(t *testing.T) {
	gen := &fakeGenerator{text: "text"}
	views := NewViews(New(nil, gen), time.Minute)

	id, opened := views.Open(7, mustProject(t, "p1"), "curl ...")
	require.NotEmpty(t, id)
	assert.Equal(t, 1, views.Len())

	view, ok := views.Get(7, id)
	require.True(t, ok)
	assert.Same(t, opened, view)
	assert.Equal(t, "text", view.Guide(context.Background()))

	again, ok := views.Get(7, id)
	require.True(t, ok)
	assert.Equal(t, "text", again.Guide(context.Background()))
	assert.Equal(t, int32(1), gen.calls.Load())

	otherID, _ := views.Open(7, mustProject(t, "p1"), "curl ...")
	assert.NotEqual(t, id, otherID)
}

func TestViewsRejectOtherOwners(t *testing.T) {
	views := NewViews(New(nil, nil), time.Minute)
	id, _ := views.Open(7, mustProject(t, "p1"), "curl ...")

	_, ok := views.Get(8, id)
	assert.False(t, ok)
	_, ok = views.Get(7, "missing")
	assert.False(t, ok)
}

func TestViewsExpire(t *testing.T) {
	views := NewViews(New(nil, nil), 20*time.Millisecond)
	id, _ := views.Open(7, mustProject(t, "p1"), "curl ...")

	time.Sleep(40 * time.Millisecond)
	_, ok := views.Get(7, id)
	assert.False(t, ok)
}
