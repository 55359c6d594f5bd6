package com

import (
	"github.com/gofrs/uuid"
	"github.com/rs/xid"
)

// Uid is a sortable connection id used to tag transport logs.
type Uid struct {
	xid.ID
}

var NilUid = Uid{xid.NilID()}

func NewUid() Uid { return Uid{xid.New()} }

func (u Uid) IsEmpty() bool { return u.IsNil() }
func (u Uid) Short() string { return short(u.String()) }

// PeerId is an opaque peer identifier handed out to clients.
// It's a random (v4) UUID in its canonical text form.
type PeerId string

const NilPeerId PeerId = ""

func NewPeerId() PeerId { return PeerId(uuid.Must(uuid.NewV4()).String()) }

// ValidPeerId checks that the id has a form of UUID.
func ValidPeerId(id PeerId) bool {
	_, err := uuid.FromString(string(id))
	return err == nil
}

func (p PeerId) String() string { return string(p) }
func (p PeerId) Short() string  { return short(string(p)) }

func short(s string) string {
	if len(s) < 7 {
		return s
	}
	return s[:3] + "." + s[len(s)-3:]
}
