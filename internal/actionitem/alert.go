package actionitem

import "time"

// AlertType is the kind of notification emitted for an action item.
type AlertType string

const (
	AlertPastDue   AlertType = "CONTROL_PAST_DUE_ACTION_ITEM"
	AlertFutureDue AlertType = "CONTROL_FUTURE_DUE_ACTION_ITEM"
)

// Alert is a notification record handed to the alert transport.
type Alert struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Type           AlertType `json:"type"`
	OrganizationID string    `json:"organization_id"`
	ActionItemID   string    `json:"action_item_id"`
	AlertDate      time.Time `json:"alert_date"`
	CreatedAt      time.Time `json:"created_at"`
}
