package engagement

import "time"

// LiveEventType names a realtime update pushed to a story's room.
type LiveEventType string

const (
	EventLikeToggled   LiveEventType = "like_toggled"
	EventCommentPosted LiveEventType = "comment_posted"
)

// LiveEvent is broadcast to every reader connected to StoryID.
type LiveEvent struct {
	Type       LiveEventType `json:"type"`
	StoryID    string        `json:"storyId"`
	TargetType TargetType    `json:"targetType"`
	TargetID   string        `json:"targetId"`
	Likes      *LikeState    `json:"likes,omitempty"`
	Comment    *Comment      `json:"comment,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
