package service

import (
	"friendlink/internal/model"
	"friendlink/internal/repository"
)

// UserSearchResult is a candidate user to befriend, annotated with the
// caller's current relationship to them so a client can render the right
// action (add friend / pending / friends).
type UserSearchResult struct {
	User             model.User `json:"user"`
	FriendshipStatus string     `json:"friendship_status"` // none, pending, accepted
}

type UserService interface {
	SearchUsers(callerID, keyword string, limit, offset int) ([]UserSearchResult, error)
	GetUserByID(userID string) (*model.User, error)
}

type userService struct {
	userRepo       repository.UserRepository
	friendshipRepo repository.FriendshipRepository
}

func NewUserService(userRepo repository.UserRepository, friendshipRepo repository.FriendshipRepository) UserService {
	return &userService{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
	}
}

// SearchUsers finds users matching a keyword, excluding the caller, each
// annotated with the caller's relationship status.
func (s *userService) SearchUsers(callerID, keyword string, limit, offset int) ([]UserSearchResult, error) {
	users, err := s.userRepo.SearchUsers(keyword, limit, offset)
	if err != nil {
		return nil, err
	}

	results := make([]UserSearchResult, 0, len(users))
	for _, user := range users {
		if user.ID == callerID {
			continue
		}

		status := model.FriendshipStatusNone
		if friendship, err := s.friendshipRepo.FindByPair(callerID, user.ID); err == nil {
			status = friendship.Status
		}

		results = append(results, UserSearchResult{
			User:             user,
			FriendshipStatus: status,
		})
	}

	return results, nil
}

// GetUserByID returns a single user
func (s *userService) GetUserByID(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
