package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"friendlink/internal/model"
	"friendlink/internal/repository"
	"friendlink/internal/util"
)

type NotificationService interface {
	SendFriendRequestNotification(recipientID, requesterID, requesterName, friendshipID string) error
	SendFriendAcceptedNotification(requesterID, recipientID, recipientName, friendshipID string) error
	GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

// NotificationMessage is the queue payload consumed by the worker
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
		wsHub:     nil, // Will be set via SetWSHub
	}
}

// SetWSHub sets the WebSocket hub for realtime notifications
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

// sendNotification persists the notification and hands it to RabbitMQ for
// async delivery. Without RabbitMQ it pushes straight to the WebSocket hub.
func (s *notificationService) sendNotification(
	userID, notifType, title, message string,
	data map[string]interface{},
) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		IsRead:  false,
	}

	if data != nil {
		if senderID, ok := data["sender_id"].(string); ok {
			notification.SenderID = &senderID
		}
		if targetID, ok := data["friendship_id"].(string); ok {
			notification.TargetID = &targetID
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	msg := NotificationMessage{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}

	if s.rabbitMQ != nil && !s.rabbitMQ.IsClosed() {
		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return err
		}

		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRoutingKey, msgJSON); err != nil {
			log.Printf("Failed to publish notification, falling back to direct push: %v", err)
		} else {
			return nil
		}
	}

	// Direct WebSocket push when the queue is unavailable
	if s.wsHub != nil {
		payload := map[string]interface{}{
			"type":    notifType,
			"title":   title,
			"message": message,
		}
		for k, v := range data {
			payload[k] = v
		}
		s.wsHub.BroadcastToUser(userID, payload)
	}

	return nil
}

// SendFriendRequestNotification notifies a user of an incoming friend request
func (s *notificationService) SendFriendRequestNotification(recipientID, requesterID, requesterName, friendshipID string) error {
	return s.sendNotification(
		recipientID,
		model.NotificationTypeFriendRequest,
		"New Friend Request",
		fmt.Sprintf("%s sent you a friend request", requesterName),
		map[string]interface{}{
			"sender_id":     requesterID,
			"friendship_id": friendshipID,
		},
	)
}

// SendFriendAcceptedNotification notifies the requester their request was accepted
func (s *notificationService) SendFriendAcceptedNotification(requesterID, recipientID, recipientName, friendshipID string) error {
	return s.sendNotification(
		requesterID,
		model.NotificationTypeFriendAccepted,
		"Friend Request Accepted",
		fmt.Sprintf("%s accepted your friend request", recipientName),
		map[string]interface{}{
			"sender_id":     recipientID,
			"friendship_id": friendshipID,
		},
	)
}

// GetNotificationsByUserID returns a page of a user's notifications
func (s *notificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

// GetUnreadCount returns the number of unread notifications for a user
func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnreadByUserID(userID)
}

// MarkAsRead marks one of the user's notifications as read
func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}

	if notification.UserID != userID {
		return errors.New("unauthorized: not your notification")
	}

	return s.notifRepo.MarkAsRead(notificationID)
}

// MarkAllAsRead marks all of the user's notifications as read
func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}
