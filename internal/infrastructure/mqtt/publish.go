package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "itemstore/item/created")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Example:
//
//	err := client.Publish(mqtt.Topics{}.SystemStatus(), payload, 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Item change actions accepted by PublishItemChange.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ItemEventPayload is the JSON body published for every item change.
type ItemEventPayload struct {
	EventID   string `json:"event_id"`
	Action    string `json:"action"`
	ItemID    int64  `json:"item_id"`
	Timestamp string `json:"timestamp"`
}

// NewItemEventPayload builds the payload for one change with a fresh event id.
// A zero at means now.
func NewItemEventPayload(action string, itemID int64, at time.Time) ItemEventPayload {
	if at.IsZero() {
		at = time.Now()
	}
	return ItemEventPayload{
		EventID:   uuid.NewString(),
		Action:    action,
		ItemID:    itemID,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

// PublishItemChange publishes a change of itemID on itemstore/item/{action}
// with the configured QoS, not retained.
func (c *Client) PublishItemChange(ctx context.Context, action string, itemID int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	switch action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("%w: unknown item action %q", ErrInvalidTopic, action)
	}

	payload, err := json.Marshal(NewItemEventPayload(action, itemID, at))
	if err != nil {
		return fmt.Errorf("%w: encoding event: %w", ErrPublishFailed, err)
	}

	return c.Publish(Topics{}.ItemEvent(action), payload, byte(c.cfg.QoS), false)
}
