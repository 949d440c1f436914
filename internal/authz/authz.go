// Package authz decides which actions a caller may perform. It knows nothing
// about HTTP; middleware translates a Decision into a status code.
package authz

import "github.com/ourgarden/backend/internal/models"

type Action string

const (
	// ReadPublic covers every GET on public content.
	ReadPublic Action = "read:public"
	// SubmitContact is the public guestbook/contact form.
	SubmitContact Action = "contact:submit"
	// ReadSelf returns the session user.
	ReadSelf Action = "session:me"
	// Write covers create, update and delete of any content, and uploads.
	Write Action = "content:write"
	// ReadPrivate covers contact messages and the audit log.
	ReadPrivate Action = "admin:read"
)

type Decision int

const (
	Allow Decision = iota
	// Unauthenticated means the action needs a session and there is none.
	Unauthenticated
	// Forbidden means the session user's role does not permit the action.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Policy is the whole permission model: anonymous callers read public content
// and submit contact messages, users additionally see their own session, and
// admins may do everything. A nil user is anonymous.
func Policy(user *models.User, action Action) Decision {
	switch action {
	case ReadPublic, SubmitContact:
		return Allow
	}
	if user == nil || !user.IsActive {
		return Unauthenticated
	}
	if user.IsAdmin() {
		return Allow
	}
	if action == ReadSelf {
		return Allow
	}
	return Forbidden
}
