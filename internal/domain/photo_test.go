package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhoto_ToggleLike(t *testing.T) {
	p := NewPhoto("a.jpg", "Title", "", "alice", 1)

	liked := p.ToggleLike(7)
	require.True(t, liked)
	require.True(t, p.LikedBy(7))
	require.Equal(t, int64(1), p.LikesCount)

	liked = p.ToggleLike(7)
	require.False(t, liked)
	require.False(t, p.LikedBy(7))
	require.Equal(t, int64(0), p.LikesCount)

	// Distinct users accumulate independently
	p.ToggleLike(1)
	p.ToggleLike(2)
	p.ToggleLike(3)
	require.Equal(t, int64(3), p.LikesCount)
	require.Len(t, p.Likes, 3)
}

func TestPhoto_RegisterView(t *testing.T) {
	p := NewPhoto("a.jpg", "Title", "", "alice", 1)

	require.True(t, p.RegisterView(7))
	require.False(t, p.RegisterView(7))
	require.Equal(t, int64(1), p.ViewsCount)
	require.Len(t, p.Views, 1)

	require.True(t, p.RegisterView(8))
	require.Equal(t, int64(2), p.ViewsCount)
}

func TestPhoto_Comments(t *testing.T) {
	p := NewPhoto("a.jpg", "Title", "", "alice", 1)

	c1 := p.AddComment(7, "first")
	c2 := p.AddComment(8, "second")
	require.NotEqual(t, c1.ID, c2.ID)
	require.Equal(t, int64(2), p.CommentsCount)

	found := p.FindComment(c1.ID)
	require.NotNil(t, found)
	require.Equal(t, "first", found.Content)

	require.Nil(t, p.FindComment("missing"))

	// Replies do not affect the comment count
	found.Replies = append(found.Replies, Reply{UserID: 9, Content: "reply"})
	p.SyncCounts()
	require.Equal(t, int64(2), p.CommentsCount)

	require.True(t, p.RemoveComment(c1.ID))
	require.False(t, p.RemoveComment(c1.ID))
	require.Equal(t, int64(1), p.CommentsCount)
	require.NotNil(t, p.FindComment(c2.ID))
}

func TestPhoto_FindCommentReturnsMutableReference(t *testing.T) {
	p := NewPhoto("a.jpg", "Title", "", "alice", 1)
	c := p.AddComment(7, "hello")

	found := p.FindComment(c.ID)
	found.Replies = append(found.Replies, Reply{UserID: 8, Content: "hi"})

	require.Len(t, p.Comments[0].Replies, 1)
}
