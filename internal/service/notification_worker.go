package service

import (
	"encoding/json"
	"log"

	"friendlink/internal/util"
	"friendlink/internal/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationWorker consumes notification messages from RabbitMQ and pushes
// them to connected WebSocket clients.
type NotificationWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
	stopChan chan struct{}
}

func NewNotificationWorker(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) *NotificationWorker {
	return &NotificationWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
		stopChan: make(chan struct{}),
	}
}

// Start declares the notification exchange/queue and begins consuming
func (w *NotificationWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil // RabbitMQ not available, worker will not start
	}

	if err := w.rabbitMQ.DeclareDirect(NotificationExchange, NotificationQueueName, NotificationRoutingKey); err != nil {
		return err
	}

	channel := w.rabbitMQ.GetChannel()
	msgs, err := channel.Consume(
		NotificationQueueName,
		"notification_worker",
		false, // manual ack so failed messages are requeued
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		log.Println("Notification worker started, consuming messages...")
		for {
			select {
			case <-w.stopChan:
				log.Println("Notification worker stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Notification queue closed")
					return
				}
				if err := w.processMessage(msg); err != nil {
					log.Printf("Error processing notification message: %v", err)
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

func (w *NotificationWorker) processMessage(msg amqp.Delivery) error {
	var notificationMsg NotificationMessage
	if err := json.Unmarshal(msg.Body, &notificationMsg); err != nil {
		return err
	}

	if w.wsHub != nil {
		payload := map[string]interface{}{
			"type":    notificationMsg.Type,
			"title":   notificationMsg.Title,
			"message": notificationMsg.Message,
		}
		for k, v := range notificationMsg.Data {
			payload[k] = v
		}
		w.wsHub.BroadcastToUser(notificationMsg.UserID, payload)
	}

	return nil
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	close(w.stopChan)
}
