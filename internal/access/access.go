// Package access contains visibility and ownership rules for entries.
package access

import (
	"github.com/Decentr-net/odyssey/internal/entities"
)

// Mode is a listing mode.
type Mode string

const (
	// ModeFeed is a public feed: everything the caller is allowed to view.
	ModeFeed Mode = "feed"
	// ModeDashboard is a personal dashboard: own entries, or everything for admins.
	ModeDashboard Mode = "dashboard"
)

// Role is a relation between a caller and an entry.
type Role int

const (
	// Anonymous caller has no identity.
	Anonymous Role = iota
	// Other is an authenticated caller who doesn't own the entry.
	Other
	// Owner is an author of the entry.
	Owner
	// Admin can see and manage everything.
	Admin
)

// RoleOf classifies caller against entry.
func RoleOf(e *entities.Entry, c entities.Caller) Role {
	switch {
	case c.IsAnonymous():
		return Anonymous
	case c.IsAdmin:
		return Admin
	case e.AuthorID == c.ID:
		return Owner
	default:
		return Other
	}
}

// CanView returns true if caller is allowed to see the entry.
func CanView(e *entities.Entry, c entities.Caller) bool {
	if !e.IsPrivate {
		return true
	}

	switch RoleOf(e, c) {
	case Owner, Admin:
		return true
	default:
		return false
	}
}

// CanManage returns true if caller is allowed to edit or delete the entry and moderate its comments.
func CanManage(e *entities.Entry, c entities.Caller) bool {
	switch RoleOf(e, c) {
	case Owner, Admin:
		return true
	default:
		return false
	}
}

// VisibleSet filters entries according to mode. Order of entries is preserved.
func VisibleSet(entries []*entities.Entry, c entities.Caller, mode Mode) []*entities.Entry {
	if mode == ModeDashboard && c.IsAdmin && !c.IsAnonymous() {
		return entries
	}

	out := make([]*entities.Entry, 0, len(entries))
	for _, v := range entries {
		var ok bool
		switch mode {
		case ModeDashboard:
			ok = RoleOf(v, c) == Owner
		default:
			ok = CanView(v, c)
		}

		if ok {
			out = append(out, v)
		}
	}

	return out
}
