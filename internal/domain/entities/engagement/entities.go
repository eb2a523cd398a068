// Package engagement defines reader engagement entities: likes, comments and reading progress.
package engagement

import "time"

// TargetType names what a like or comment is attached to.
type TargetType string

const (
	TargetStory   TargetType = "story"
	TargetPage    TargetType = "page"
	TargetComment TargetType = "comment"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	switch t {
	case TargetStory, TargetPage, TargetComment:
		return true
	}
	return false
}

// Commentable reports whether comments may target t.
func (t TargetType) Commentable() bool {
	return t == TargetStory || t == TargetPage
}

// Like is a single reader's like on a story, page or comment. At most one exists
// per (TargetType, TargetID, UserSession).
type Like struct {
	ID          string     `json:"id"`
	TargetType  TargetType `json:"targetType"`
	TargetID    string     `json:"targetId"`
	UserSession string     `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LikeState is what a reader sees for a target: whether they like it and the total.
type LikeState struct {
	TargetType TargetType `json:"targetType"`
	TargetID   string     `json:"targetId"`
	Liked      bool       `json:"liked"`
	Count      int        `json:"count"`
}

type Comment struct {
	ID              string     `json:"id"`
	TargetType      TargetType `json:"targetType"`
	TargetID        string     `json:"targetId"`
	ParentCommentID *string    `json:"parentCommentId,omitempty"`
	UserName        string     `json:"userName"`
	Content         string     `json:"content"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CommentNode is a comment with its replies attached.
type CommentNode struct {
	Comment
	Depth   int            `json:"depth"`
	Replies []*CommentNode `json:"replies"`
}

// CommentInput is what a reader submits when posting.
type CommentInput struct {
	UserName        string  `json:"userName"`
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
}

// ReadingProgress is the last page a session reached in a story. Seq is a
// client-side navigation counter; a stored progress is only replaced by a higher Seq.
type ReadingProgress struct {
	UserSession string    `json:"-"`
	StoryID     string    `json:"storyId"`
	PageID      string    `json:"pageId"`
	Seq         int64     `json:"seq"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
