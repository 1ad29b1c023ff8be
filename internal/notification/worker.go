package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"equipment-maintenance-backend/internal/model"
	"equipment-maintenance-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// reviewAlert is one pending-review event queued for delivery.
type reviewAlert struct {
	MaintenanceID string `json:"maintenance_id"`
	EquipmentID   string `json:"equipment_id"`
	Message       string `json:"message"`
}

// WorkerPool manages a pool of workers pushing pending-review alerts to
// subscribed reviewers.
type WorkerPool struct {
	size    int
	jobs    chan reviewAlert
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, st store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan reviewAlert, size),
		store:   st,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// NotifyPendingReview queues an alert for a ticket that entered the review
// loop. It never blocks the caller; if the queue is full the alert is
// dropped with a log line.
func (wp *WorkerPool) NotifyPendingReview(maintenanceID, equipmentID string) {
	alert := reviewAlert{
		MaintenanceID: maintenanceID,
		EquipmentID:   equipmentID,
		Message:       "Maintenance " + maintenanceID + " on " + equipmentID + " is pending review",
	}
	select {
	case wp.jobs <- alert:
	default:
		log.Printf("notification queue full, dropping alert for %s", maintenanceID)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.broadcast(ctx, alert)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// broadcast pushes one alert to every stored subscription.
func (wp *WorkerPool) broadcast(ctx context.Context, alert reviewAlert) {
	subs, err := wp.store.ListSubscriptions(ctx)
	if err != nil {
		log.Printf("Error listing subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("Error marshalling alert for %s: %v", alert.MaintenanceID, err)
		return
	}

	log.Printf("Sending %d notifications for ticket %s", len(subs), alert.MaintenanceID)
	for _, sub := range subs {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
