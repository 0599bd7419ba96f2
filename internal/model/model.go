// Package model holds the records served by the upstream REST store.
//
// Records are transient: they are decoded from one upstream response and live only
// for the execution that asked for them.
package model

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ID identifies an upstream record. The store hands out numeric ids for records
// created through POST while seeded records carry strings, so both decode to the
// same value. An ID always encodes as a JSON string.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "model: decoding id")
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return errors.Errorf("model: invalid id %s", b)
	}
	*id = ID(b)
	return nil
}

// Ptr returns nil for the empty ID so that optional foreign keys render as null.
func (id ID) Ptr() *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}

// User is a person record. Friends is only present in the raw record; the graph
// exposes it as a list of resolved users.
type User struct {
	ID         ID          `json:"id"`
	FirstName  *string     `json:"firstName,omitempty"`
	LastName   *string     `json:"lastName,omitempty"`
	Age        *int32      `json:"age,omitempty"`
	CompanyID  *ID         `json:"companyId,omitempty"`
	PositionID *ID         `json:"positionId,omitempty"`
	Friends    []FriendRef `json:"friends,omitempty"`
}

// FriendRef is one entry of a user's raw friend list.
type FriendRef struct {
	FriendID ID `json:"friendId"`
}

// FriendIDs returns the friend ids in record order. Duplicates are kept.
func (u *User) FriendIDs() []ID {
	ids := make([]ID, 0, len(u.Friends))
	for _, f := range u.Friends {
		ids = append(ids, f.FriendID)
	}
	return ids
}

// Company groups users by employer.
type Company struct {
	ID          ID      `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Position groups users by job title.
type Position struct {
	ID    ID      `json:"id"`
	Title *string `json:"title,omitempty"`
}

// ForeignKey returns the referenced id, or false when the key is absent or empty.
func ForeignKey(id *ID) (ID, bool) {
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}
