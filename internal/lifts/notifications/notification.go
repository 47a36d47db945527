package notifications

import (
	"slices"
	"time"
)

type Notification struct {
	ID         int       `json:"id"`
	Text       string    `json:"text"`
	Date       time.Time `json:"date"`
	CreatorID  string    `json:"creatorId"`
	Recipients []string  `json:"recipients"`
	OpenedBy   []string  `json:"openedBy"`
}

// UnreadFor is true when the user is a recipient who has not opened the notification yet.
func (n *Notification) UnreadFor(userID string) bool {
	return slices.Contains(n.Recipients, userID) && !slices.Contains(n.OpenedBy, userID)
}

// View is a notification as seen by one recipient.
type View struct {
	*Notification
	Unread bool `json:"unread"`
}

// Update is a partial notification; nil fields are left unchanged.
type Update struct {
	Text     *string
	OpenedBy []string
}
