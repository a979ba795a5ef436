package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friendship status values. A friendship is either pending or accepted;
// declining deletes the row instead of recording a third state.
const (
	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"

	// FriendshipStatusNone is never stored; it is the status reported
	// for a pair of users with no relationship row.
	FriendshipStatusNone = "none"
)

var ErrNotPending = errors.New("friendship is not pending")

type Friendship struct {
	ID          string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RequesterID string    `gorm:"type:uuid;not null;index" json:"requester_id"`
	RecipientID string    `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Status      string    `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, accepted
	PairKey     string    `gorm:"type:varchar(80);not null;uniqueIndex" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID;references:ID" json:"requester,omitempty"`
	Recipient User `gorm:"foreignKey:RecipientID;references:ID" json:"recipient,omitempty"`
}

// BeforeCreate hook to generate UUID and the canonical pair key
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.PairKey == "" {
		f.PairKey = PairKey(f.RequesterID, f.RecipientID)
	}
	return nil
}

// TableName specifies the table name
func (Friendship) TableName() string {
	return "friendships"
}

// PairKey returns the canonical key for an unordered pair of user IDs.
// The smaller ID always comes first, so A->B and B->A map to the same key
// and the unique index rejects a second relationship for the pair.
func PairKey(userID1, userID2 string) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return userID1 + ":" + userID2
}

// Accept transitions a pending friendship to accepted. It is the only
// legal status transition; there is no way back to pending.
func (f *Friendship) Accept() error {
	if f.Status != FriendshipStatusPending {
		return ErrNotPending
	}
	f.Status = FriendshipStatusAccepted
	return nil
}

// IsPending reports whether the friendship is still awaiting the recipient.
func (f *Friendship) IsPending() bool {
	return f.Status == FriendshipStatusPending
}

// Involves reports whether the given user is either side of the friendship.
func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.RecipientID == userID
}

// OtherSide returns the ID of the user on the opposite side of the
// friendship from the given user.
func (f *Friendship) OtherSide(userID string) string {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}
