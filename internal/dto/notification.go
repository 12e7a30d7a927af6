package dto

// NotificationQuery filters a user's notifications.
type NotificationQuery struct {
	UnreadOnly bool `form:"unread"`
	Page       int  `form:"page"`
	PageSize   int  `form:"page_size"`
}
