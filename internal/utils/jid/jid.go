package jid

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// Kind classifies a raw JID by its server part.
type Kind string

const (
	KindUser       Kind = "user"
	KindLID        Kind = "lid"
	KindGroup      Kind = "group"
	KindBroadcast  Kind = "broadcast"
	KindStatus     Kind = "status"
	KindNewsletter Kind = "newsletter"
	KindOther      Kind = "other"
	KindInvalid    Kind = "invalid"
)

// Bare returns the identifier with everything from the first '@' removed.
// Strings without '@' are returned unchanged.
func Bare(raw string) string {
	user, _, _ := strings.Cut(raw, "@")
	return user
}

// Classify returns the Kind of a raw JID string.
func Classify(raw string) Kind {
	if !strings.Contains(raw, "@") {
		return KindInvalid
	}
	j, err := types.ParseJID(raw)
	if err != nil {
		return KindInvalid
	}
	switch {
	case IsStatus(j):
		return KindStatus
	case IsPN(j):
		return KindUser
	case IsLID(j):
		return KindLID
	case IsGroup(j):
		return KindGroup
	case IsBroadcast(j):
		return KindBroadcast
	case IsNewsletter(j):
		return KindNewsletter
	default:
		return KindOther
	}
}

// IsGroup returns true if the JID is a group.
func IsGroup(jid types.JID) bool {
	return jid.Server == types.GroupServer
}

// IsNewsletter returns true if the JID is a newsletter/channel.
func IsNewsletter(jid types.JID) bool {
	return jid.Server == types.NewsletterServer
}

// IsBroadcast returns true if the JID is a broadcast list.
func IsBroadcast(jid types.JID) bool {
	return jid.Server == types.BroadcastServer
}

// IsStatus returns true if the JID is a status update.
func IsStatus(jid types.JID) bool {
	return jid.User == "status" && jid.Server == types.BroadcastServer
}

// IsLID returns true if this JID is a LID (local identifier).
func IsLID(jid types.JID) bool {
	return jid.Server == types.HiddenUserServer
}

// IsPN returns true if this JID is a PN (phone number).
func IsPN(jid types.JID) bool {
	return jid.Server == types.DefaultUserServer && jid.User != ""
}
