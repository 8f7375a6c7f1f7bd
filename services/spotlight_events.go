package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Event types published on the spotlight.events queue.
const (
	EventSpotlightApplied = "spotlight.applied"
	EventSpotlightEdited  = "spotlight.edited"
	EventSpotlightPaused  = "spotlight.paused"
	EventSpotlightResumed = "spotlight.resumed"
	EventSpotlightRemoved = "spotlight.removed"
	EventSpotlightExpired = "spotlight.expired"
)

const spotlightEventQueue = "spotlight.events"

// SpotlightEvent is the message downstream consumers (search ranking,
// analytics) receive for every lifecycle transition. Timestamps are
// RFC3339 UTC strings.
type SpotlightEvent struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	ListingID   int    `json:"listing_id"`
	SpotlightID int    `json:"spotlight_id"`
	ActorID     *int   `json:"actor_id,omitempty"`
	Status      string `json:"status"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	OccurredAt  string `json:"occurred_at"`
}

// PublishSpotlightEvent pushes one lifecycle event to RabbitMQ. When no
// broker URL is configured the call is a no-op, so single-node
// deployments run without a broker. Errors are logged and returned for
// callers that want to know, but the lifecycle transition has already
// committed and is never rolled back over a publish failure.
func PublishSpotlightEvent(ctx context.Context, event SpotlightEvent) error {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	if url == "" {
		return nil
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		spotlightEventQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		spotlightEventQueue, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}

// publishTransitionEvent fills the event from a spotlight row and
// publishes in the background. Used after a transition commits.
func publishTransitionEvent(eventType string, spotlightID, listingID int, actorID *int, status string, start, end time.Time) {
	event := SpotlightEvent{
		EventType:   eventType,
		ListingID:   listingID,
		SpotlightID: spotlightID,
		ActorID:     actorID,
		Status:      status,
		StartTime:   start.UTC().Format(time.RFC3339),
		EndTime:     end.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = PublishSpotlightEvent(ctx, event)
	}()
}
