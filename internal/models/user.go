package models

const (
	// CurrentUserName is shown for messages written by the viewing user
	CurrentUserName = "You"
	// MemberName is the generic label for everyone else in the group
	MemberName = "Traveler"
)

// User identifies a chat participant. There is no server-side authentication:
// the ID is a random identifier generated and persisted by the client.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
