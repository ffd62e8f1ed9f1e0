// Package notify pushes named real-time messages to connected browsers.
package notify

//go:generate mockgen -source=notify.go -destination=mock_notify/notifier.go -package=mock_notify

// Message names understood by the browser clients.
const (
	EventAdded       = "EventAdded"
	EventUpdated     = "EventUpdated"
	EventDeleted     = "EventDeleted"
	EventUpdatesTask = "EventUpdatesTask"

	TaskAdded   = "TaskAdded"
	TaskUpdated = "TaskUpdated"
	TaskDeleted = "TaskDeleted"

	BlockTaskEdit   = "BlockTaskEdit"
	UnblockTaskEdit = "UnblockTaskEdit"

	UserRegistered       = "UserRegistered"
	ForcePasswordReset   = "ForcePasswordReset"
	ForceLogoutWithToast = "ForceLogoutWithToast"
)

// Message is the frame written to every recipient.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Notifier delivers messages without waiting for the recipients. A message
// that cannot be queued for a connection is dropped for that connection.
type Notifier interface {
	// All sends the message to every connected client.
	All(name string, payload any)
	// User sends the message to every connection of the user.
	User(userID string, name string, payload any)
	// Users sends the message to every connection of the given users.
	Users(userIDs []string, name string, payload any)
}
