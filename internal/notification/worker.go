package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"parking-guide-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the subset of the store the workers need.
type SubscriptionStore interface {
	SubscriptionsForLot(ctx context.Context, lotNumber int) ([]model.PushSubscription, error)
	DeleteSubscriptions(ctx context.Context, endpoints []string) error
}

// AlertRecorder counts delivery attempts.
type AlertRecorder interface {
	AlertSent(delivered bool)
}

// Alert announces that a watched lot has space again.
type Alert struct {
	LotNumber       int       `json:"lot_number"`
	Location        string    `json:"location"`
	AvailableSpaces int       `json:"available_spaces"`
	Instant         time.Time `json:"instant"`
}

// Payload is the JSON body delivered to the browser.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Alert Alert  `json:"alert"`
}

func (a Alert) payload() ([]byte, error) {
	return json.Marshal(Payload{
		Title: "Parking available",
		Body:  fmt.Sprintf("%s now has %d open spaces", a.Location, a.AvailableSpaces),
		Alert: a,
	})
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size     int
	jobs     chan Alert
	store    SubscriptionStore
	webpush  *webpush.Options
	sender   NotificationSender
	recorder AlertRecorder
	log      zerolog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, store SubscriptionStore, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

func (wp *WorkerPool) SetRecorder(r AlertRecorder) { wp.recorder = r }

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.With().Int("worker", id).Logger()
	log.Debug().Msg("worker started")
	for {
		select {
		case alert := <-wp.jobs:
			log.Debug().Int("lot", alert.LotNumber).Msg("processing lot alert")
			wp.sendAlert(ctx, alert)
		case <-ctx.Done():
			log.Debug().Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert. It blocks while every worker is busy and the
// queue is full, and gives up when ctx is done.
func (wp *WorkerPool) Dispatch(ctx context.Context, alert Alert) error {
	select {
	case wp.jobs <- alert:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) sendAlert(ctx context.Context, alert Alert) {
	subscriptions, err := wp.store.SubscriptionsForLot(ctx, alert.LotNumber)
	if err != nil {
		wp.log.Error().Err(err).Int("lot", alert.LotNumber).Msg("failed to fetch subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := alert.payload()
	if err != nil {
		wp.log.Error().Err(err).Msg("failed to encode alert")
		return
	}

	wp.log.Info().Int("lot", alert.LotNumber).Int("subscriptions", len(subscriptions)).Msg("sending lot alerts")

	var expired []string
	for _, sub := range subscriptions {
		if gone := wp.sendNotification(sub, payload); gone {
			expired = append(expired, sub.Endpoint)
		}
	}

	if len(expired) > 0 {
		wp.log.Info().Strs("endpoints", expired).Msg("deleting expired subscriptions")
		if err := wp.store.DeleteSubscriptions(ctx, expired); err != nil {
			wp.log.Error().Err(err).Msg("failed to delete expired subscriptions")
		}
	}
}

// sendNotification delivers one payload and reports whether the push service
// says the subscription no longer exists.
func (wp *WorkerPool) sendNotification(sub model.PushSubscription, payload []byte) bool {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.record(false)
		wp.log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("error sending notification")
		return false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusGone, http.StatusNotFound:
		wp.record(false)
		return true
	}
	wp.record(resp.StatusCode < 300)
	return false
}

func (wp *WorkerPool) record(delivered bool) {
	if wp.recorder != nil {
		wp.recorder.AlertSent(delivered)
	}
}
