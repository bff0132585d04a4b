package model

import "strconv"

// Identity is the caller of a chat request. UserID is zero for anonymous
// sessions, which are keyed by AnonymousID instead.
type Identity struct {
	UserID      uint
	AnonymousID string
	IsAdmin     bool
}

func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

// Key is a stable per-caller key for rate limiting and logging.
func (i Identity) Key() string {
	if i.Anonymous() {
		return "anon:" + i.AnonymousID
	}
	return "user:" + strconv.FormatUint(uint64(i.UserID), 10)
}

func (i Identity) UserIDPtr() *uint {
	if i.Anonymous() {
		return nil
	}
	id := i.UserID
	return &id
}
