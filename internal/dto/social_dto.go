package dto

import "github.com/coriplus/coriplus/internal/models"

type CreateMessageRequest struct {
	Text    string         `json:"text" form:"text"`
	Privacy models.Privacy `json:"privacy" form:"privacy"`
}

type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type UserListResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unseen        int64                 `json:"unseen"`
}
