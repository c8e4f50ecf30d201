package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Like records that a user likes a photo. A photo holds at most one
// Like per user.
type Like struct {
	// UserID is the user who liked the photo.
	UserID int64 `json:"user_id"`

	// LikedAt is when the like was recorded.
	LikedAt time.Time `json:"liked_at"`
}

// View records that a user has seen a photo. A photo holds at most one
// View per user; repeat views are never recorded.
type View struct {
	// UserID is the user who viewed the photo.
	UserID int64 `json:"user_id"`

	// ViewedAt is when the first view was recorded.
	ViewedAt time.Time `json:"viewed_at"`
}

// Reply is a response to a comment. Replies are flat: a Reply has no
// replies of its own, capping thread depth at one level.
type Reply struct {
	// UserID is the author of the reply.
	UserID int64 `json:"user_id"`

	// Content is the reply text.
	Content string `json:"content"`

	// CreatedAt is when the reply was posted.
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a top-level comment on a photo. Comments are addressed by
// their stable ID, never by position in the collection.
type Comment struct {
	// ID is the unique identifier assigned at creation.
	ID string `json:"id"`

	// UserID is the author of the comment.
	UserID int64 `json:"user_id"`

	// Content is the comment text. Always non-empty and trimmed.
	Content string `json:"content"`

	// CreatedAt is when the comment was posted.
	CreatedAt time.Time `json:"created_at"`

	// Replies holds one-level responses to this comment.
	Replies []Reply `json:"replies"`
}

// Photo is the central record of the system: image metadata plus the
// embedded engagement collections that likes, views and comments live in.
// Engagement mutations are read-modify-write cycles over a single Photo,
// guarded by the Version field (optimistic concurrency).
type Photo struct {
	// ID is the unique identifier for the photo.
	ID string `json:"id"`

	// Filename is the stored image filename. It joins the photo record
	// to the image delivery path.
	Filename string `json:"filename"`

	// Title is the photo title.
	Title string `json:"title"`

	// Description is the optional photo description.
	Description string `json:"description"`

	// Author is the display name shown for the photo.
	Author string `json:"author"`

	// OwnerID is the user who uploaded the photo. Sole authority to
	// delete it.
	OwnerID int64 `json:"owner_id"`

	// UploadedAt is when the photo was uploaded.
	UploadedAt time.Time `json:"uploaded_at"`

	// Likes holds at most one entry per user.
	Likes []Like `json:"likes"`

	// LikesCount caches len(Likes). Recomputed on every mutation,
	// never incremented independently.
	LikesCount int64 `json:"likes_count"`

	// Views holds at most one entry per user.
	Views []View `json:"views"`

	// ViewsCount caches len(Views).
	ViewsCount int64 `json:"views_count"`

	// Comments holds the top-level comments in posting order.
	Comments []Comment `json:"comments"`

	// CommentsCount caches len(Comments). Replies do not count.
	CommentsCount int64 `json:"comments_count"`

	// Version is incremented on every persisted mutation. Writes are
	// conditioned on the version read, so concurrent writers cannot
	// silently overwrite each other.
	Version int64 `json:"-"`
}

// NewPhoto creates a Photo with empty engagement collections.
func NewPhoto(filename, title, description, author string, ownerID int64) *Photo {
	p := &Photo{
		ID:          uuid.NewString(),
		Filename:    filename,
		Title:       title,
		Description: description,
		Author:      author,
		OwnerID:     ownerID,
		UploadedAt:  time.Now().UTC(),
		Likes:       []Like{},
		Views:       []View{},
		Comments:    []Comment{},
	}
	p.SyncCounts()
	return p
}

// SyncCounts recomputes the denormalized counters from the collection
// lengths. Must be called after every engagement mutation.
func (p *Photo) SyncCounts() {
	p.LikesCount = int64(len(p.Likes))
	p.ViewsCount = int64(len(p.Views))
	p.CommentsCount = int64(len(p.Comments))
}

// LikedBy reports whether the user has an existing like on the photo.
func (p *Photo) LikedBy(userID int64) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips the like relation for the user and returns the
// resulting state. Applied twice it restores the original collection.
func (p *Photo) ToggleLike(userID int64) (liked bool) {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			p.SyncCounts()
			return false
		}
	}
	p.Likes = append(p.Likes, Like{UserID: userID, LikedAt: time.Now().UTC()})
	p.SyncCounts()
	return true
}

// RegisterView records a view for the user unless one already exists.
// Returns true if a new view was recorded.
func (p *Photo) RegisterView(userID int64) bool {
	for _, v := range p.Views {
		if v.UserID == userID {
			return false
		}
	}
	p.Views = append(p.Views, View{UserID: userID, ViewedAt: time.Now().UTC()})
	p.SyncCounts()
	return true
}

// AddComment appends a new comment and returns a pointer into the
// photo's collection. Content must be validated by the caller.
func (p *Photo) AddComment(userID int64, content string) *Comment {
	c := Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
		Replies:   []Reply{},
	}
	p.Comments = append(p.Comments, c)
	p.SyncCounts()
	return &p.Comments[len(p.Comments)-1]
}

// FindComment returns the comment with the given ID, or nil.
// The pointer references the photo's own collection.
func (p *Photo) FindComment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// RemoveComment deletes the comment with the given ID, taking its
// replies with it. Returns false if no such comment exists.
func (p *Photo) RemoveComment(commentID string) bool {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			p.SyncCounts()
			return true
		}
	}
	return false
}

// AddReply appends a reply to the comment with the given ID and returns
// the updated comment, or nil if the comment does not exist.
func (c *Comment) AddReply(userID int64, content string) *Reply {
	c.Replies = append(c.Replies, Reply{
		UserID:    userID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	})
	return &c.Replies[len(c.Replies)-1]
}
