package types

// ConvertDatetimeRequest is the body of POST /v1/datetime/convert.
type ConvertDatetimeRequest struct {
	Timestamp string `json:"timestamp" binding:"required"`
}

type ConvertDatetimeResponse struct {
	UTC string `json:"utc"`
}

type UsernameResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type TopicResponse struct {
	TeamID  string `json:"team_id"`
	TopicID string `json:"topic_id"`
}

// URLResponse wraps any link produced by the helpers.
type URLResponse struct {
	URL string `json:"url"`
}

// SendNotificationRequest is the body of POST /v1/notifications.
type SendNotificationRequest struct {
	NotificationData
	Subject    string   `json:"subject" binding:"required"`
	FromEmail  string   `json:"from_email" binding:"required"`
	DestEmails []string `json:"dest_emails" binding:"required,min=1"`
	Async      bool     `json:"async"`
}

type SendNotificationResponse struct {
	Sent   bool `json:"sent"`
	Queued bool `json:"queued,omitempty"`
}
