package ports

import "context"

// Sender delivers one outbound message to one user through the chat
// transport. Implementations should honor ctx cancellation; delivery
// failure for a single user is not fatal to callers.
type Sender interface {
	Send(ctx context.Context, userID string, text string) error
}
