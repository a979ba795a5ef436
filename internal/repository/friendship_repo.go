package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"friendlink/internal/model"
	"friendlink/internal/util"

	"gorm.io/gorm"
)

type FriendshipRepository interface {
	Create(friendship *model.Friendship) error
	FindByID(id string) (*model.Friendship, error)
	FindByPair(userID1, userID2 string) (*model.Friendship, error)
	FindByUserID(userID string) ([]*model.Friendship, error)
	FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error)
	FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error)
	FindAcceptedByUserID(userID string) ([]*model.Friendship, error)
	Update(friendship *model.Friendship) error
	Delete(id string) error
	CountPendingByRecipientID(recipientID string) (int64, error)
}

type friendshipRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	friendshipCachePrefix         = "friendship:"
	friendshipByUserCachePrefix   = "friendship:user:"
	friendshipPendingCachePrefix  = "friendship:pending:"
	friendshipSentCachePrefix     = "friendship:sent:"
	friendshipAcceptedCachePrefix = "friendship:accepted:"
	friendshipCountCachePrefix    = "friendship:count:"
	friendshipCacheExpiration     = 15 * time.Minute
)

func NewFriendshipRepository(db *gorm.DB, redis *util.RedisClient) FriendshipRepository {
	return &friendshipRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts a new pending friendship. The unique index on pair_key
// rejects a second row for the same unordered pair.
func (r *friendshipRepository) Create(friendship *model.Friendship) error {
	if err := r.db.Create(friendship).Error; err != nil {
		return err
	}

	r.invalidateForUsers(friendship)
	return nil
}

// FindByID finds a friendship by ID
func (r *friendshipRepository) FindByID(id string) (*model.Friendship, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.getFromCache(friendshipCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendship model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("id = ?", id).First(&friendship).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		r.cacheFriendship(&friendship)
	}

	return &friendship, nil
}

// FindByPair finds the relationship between two users in either direction,
// using the canonical pair key.
func (r *friendshipRepository) FindByPair(userID1, userID2 string) (*model.Friendship, error) {
	var friendship model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("pair_key = ?", model.PairKey(userID1, userID2)).
		First(&friendship).Error
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindByUserID finds all friendships for a user, newest first
func (r *friendshipRepository) FindByUserID(userID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipByUserCachePrefix + userID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipByUserCachePrefix+userID, friendships)
	}

	return friendships, nil
}

// FindPendingByRecipientID finds pending requests awaiting a user's answer
func (r *friendshipRepository) FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipPendingCachePrefix + recipientID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("recipient_id = ? AND status = ?", recipientID, model.FriendshipStatusPending).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipPendingCachePrefix+recipientID, friendships)
	}

	return friendships, nil
}

// FindPendingByRequesterID finds requests a user has sent that are still open
func (r *friendshipRepository) FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipSentCachePrefix + requesterID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("requester_id = ? AND status = ?", requesterID, model.FriendshipStatusPending).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipSentCachePrefix+requesterID, friendships)
	}

	return friendships, nil
}

// FindAcceptedByUserID finds confirmed friendships for a user, either side
func (r *friendshipRepository) FindAcceptedByUserID(userID string) ([]*model.Friendship, error) {
	if r.redis != nil {
		cached, err := r.getListFromCache(friendshipAcceptedCachePrefix + userID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var friendships []*model.Friendship
	err := r.db.Preload("Requester").Preload("Recipient").
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, model.FriendshipStatusAccepted).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.cacheFriendshipList(friendshipAcceptedCachePrefix+userID, friendships)
	}

	return friendships, nil
}

// Update persists a friendship mutation
func (r *friendshipRepository) Update(friendship *model.Friendship) error {
	if err := r.db.Save(friendship).Error; err != nil {
		return err
	}

	r.invalidateForUsers(friendship)
	return nil
}

// Delete removes a friendship row
func (r *friendshipRepository) Delete(id string) error {
	// Load first so cache invalidation knows both sides
	var friendship model.Friendship
	if err := r.db.Where("id = ?", id).First(&friendship).Error; err != nil {
		return err
	}

	if err := r.db.Delete(&friendship).Error; err != nil {
		return err
	}

	r.invalidateForUsers(&friendship)
	return nil
}

// CountPendingByRecipientID counts open requests for a user
func (r *friendshipRepository) CountPendingByRecipientID(recipientID string) (int64, error) {
	if r.redis != nil {
		cached, err := r.redis.Get(friendshipCountCachePrefix + recipientID)
		if err == nil {
			var count int64
			if _, err := fmt.Sscanf(cached, "%d", &count); err == nil {
				return count, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&model.Friendship{}).
		Where("recipient_id = ? AND status = ?", recipientID, model.FriendshipStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.redis != nil {
		r.redis.Set(friendshipCountCachePrefix+recipientID, fmt.Sprintf("%d", count), friendshipCacheExpiration)
	}

	return count, nil
}

// Cache helpers
func (r *friendshipRepository) cacheFriendship(friendship *model.Friendship) {
	if r.redis == nil {
		return
	}

	friendshipJSON, err := json.Marshal(friendship)
	if err != nil {
		return
	}

	r.redis.Set(friendshipCachePrefix+friendship.ID, string(friendshipJSON), friendshipCacheExpiration)
}

func (r *friendshipRepository) cacheFriendshipList(key string, friendships []*model.Friendship) {
	if r.redis == nil {
		return
	}

	friendshipsJSON, err := json.Marshal(friendships)
	if err != nil {
		return
	}

	r.redis.Set(key, string(friendshipsJSON), friendshipCacheExpiration)
}

func (r *friendshipRepository) getFromCache(key string) (*model.Friendship, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var friendship model.Friendship
	if err := json.Unmarshal([]byte(cached), &friendship); err != nil {
		return nil, err
	}

	return &friendship, nil
}

func (r *friendshipRepository) getListFromCache(key string) ([]*model.Friendship, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var friendships []*model.Friendship
	if err := json.Unmarshal([]byte(cached), &friendships); err != nil {
		return nil, err
	}

	return friendships, nil
}

// invalidateForUsers drops every cache entry a friendship mutation can touch
func (r *friendshipRepository) invalidateForUsers(friendship *model.Friendship) {
	if r.redis == nil {
		return
	}

	r.redis.Delete(friendshipCachePrefix + friendship.ID)
	for _, userID := range []string{friendship.RequesterID, friendship.RecipientID} {
		r.redis.Delete(friendshipByUserCachePrefix + userID)
		r.redis.Delete(friendshipPendingCachePrefix + userID)
		r.redis.Delete(friendshipSentCachePrefix + userID)
		r.redis.Delete(friendshipAcceptedCachePrefix + userID)
		r.redis.Delete(friendshipCountCachePrefix + userID)
	}
}
