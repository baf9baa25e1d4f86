package session

import "github.com/google/uuid"

// NewBrowserID returns a random v4 uuid identifying one browser.
func NewBrowserID() string {
	return uuid.NewString()
}

// ValidBrowserID reports whether id is a canonical uuid. Browser ids become
// storage key prefixes, so anything else is refused.
func ValidBrowserID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.String() == id
}
