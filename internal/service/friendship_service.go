package service

import (
	"errors"
	"fmt"

	"friendlink/internal/model"
	"friendlink/internal/repository"
)

var (
	ErrSelfRequest        = errors.New("cannot send a friend request to yourself")
	ErrUserNotFound       = errors.New("user not found")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrRequestPending     = errors.New("friend request already pending")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrNotRecipient       = errors.New("only the recipient can act on this request")
	ErrNotParticipant     = errors.New("you are not part of this friendship")
)

type FriendshipService interface {
	SendFriendRequest(requesterID, recipientID string) (*model.Friendship, error)
	AcceptFriendRequest(friendshipID, userID string) (*model.Friendship, error)
	DeclineFriendRequest(friendshipID, userID string) error
	GetFriendshipByID(friendshipID string) (*model.Friendship, error)
	GetFriendshipsByUserID(userID string) ([]*model.Friendship, error)
	GetPendingRequests(userID string) ([]*model.Friendship, error)
	GetSentRequests(userID string) ([]*model.Friendship, error)
	GetFriends(userID string) ([]*model.Friendship, error)
	GetFriendshipStatus(userID1, userID2 string) (string, error)
	CountPendingRequests(userID string) (int64, error)
}

type friendshipService struct {
	friendshipRepo repository.FriendshipRepository
	userRepo       repository.UserRepository
	notifService   NotificationService
}

func NewFriendshipService(
	friendshipRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	notifService NotificationService,
) FriendshipService {
	return &friendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		notifService:   notifService,
	}
}

// SendFriendRequest creates a pending friendship. At most one relationship
// may exist per unordered pair of users; a request in either direction
// counts against that limit, and the unique pair index backstops the check
// against concurrent requests.
func (s *friendshipService) SendFriendRequest(requesterID, recipientID string) (*model.Friendship, error) {
	if requesterID == recipientID {
		return nil, ErrSelfRequest
	}

	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.userRepo.FindByID(recipientID); err != nil {
		return nil, ErrUserNotFound
	}

	// Reject duplicates for the pair, either direction
	existing, err := s.friendshipRepo.FindByPair(requesterID, recipientID)
	if err == nil && existing != nil {
		if existing.IsPending() {
			return nil, ErrRequestPending
		}
		return nil, ErrAlreadyFriends
	}

	friendship := &model.Friendship{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FriendshipStatusPending,
	}

	if err := s.friendshipRepo.Create(friendship); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	// Notify the recipient (async, non-blocking)
	go func() {
		s.notifService.SendFriendRequestNotification(
			recipientID,
			requesterID,
			requester.FullName,
			friendship.ID,
		)
	}()

	// Reload with relationships
	return s.friendshipRepo.FindByID(friendship.ID)
}

// AcceptFriendRequest confirms a pending friendship. Only the recipient may
// accept; accepting an already-accepted friendship is a no-op.
func (s *friendshipService) AcceptFriendRequest(friendshipID, userID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}

	if friendship.RecipientID != userID {
		return nil, ErrNotRecipient
	}

	if friendship.Status == model.FriendshipStatusAccepted {
		return friendship, nil
	}

	if err := friendship.Accept(); err != nil {
		return nil, err
	}
	if err := s.friendshipRepo.Update(friendship); err != nil {
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}

	// Notify the requester (async)
	go func() {
		recipient, _ := s.userRepo.FindByID(friendship.RecipientID)
		if recipient != nil {
			s.notifService.SendFriendAcceptedNotification(
				friendship.RequesterID,
				friendship.RecipientID,
				recipient.FullName,
				friendship.ID,
			)
		}
	}()

	// Reload with relationships
	return s.friendshipRepo.FindByID(friendship.ID)
}

// DeclineFriendRequest deletes the friendship row. While the request is
// pending only the recipient may decline it; once accepted either party may
// remove it. A later lookup by id returns not-found.
func (s *friendshipService) DeclineFriendRequest(friendshipID, userID string) error {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return ErrFriendshipNotFound
	}

	if friendship.IsPending() {
		if friendship.RecipientID != userID {
			return ErrNotRecipient
		}
	} else if !friendship.Involves(userID) {
		return ErrNotParticipant
	}

	if err := s.friendshipRepo.Delete(friendshipID); err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}

	return nil
}

// GetFriendshipByID gets a friendship by ID
func (s *friendshipService) GetFriendshipByID(friendshipID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}
	return friendship, nil
}

// GetFriendshipsByUserID gets all friendships for a user
func (s *friendshipService) GetFriendshipsByUserID(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindByUserID(userID)
}

// GetPendingRequests gets requests awaiting the user's answer
func (s *friendshipService) GetPendingRequests(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindPendingByRecipientID(userID)
}

// GetSentRequests gets open requests the user has sent
func (s *friendshipService) GetSentRequests(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindPendingByRequesterID(userID)
}

// GetFriends gets confirmed friendships for a user, either side
func (s *friendshipService) GetFriends(userID string) ([]*model.Friendship, error) {
	return s.friendshipRepo.FindAcceptedByUserID(userID)
}

// GetFriendshipStatus reports none, pending, or accepted for a pair of users
func (s *friendshipService) GetFriendshipStatus(userID1, userID2 string) (string, error) {
	friendship, err := s.friendshipRepo.FindByPair(userID1, userID2)
	if err != nil {
		return model.FriendshipStatusNone, nil
	}
	return friendship.Status, nil
}

// CountPendingRequests counts requests awaiting the user's answer
func (s *friendshipService) CountPendingRequests(userID string) (int64, error) {
	return s.friendshipRepo.CountPendingByRecipientID(userID)
}
