// Package broker carries snapshots over MQTT as JSON.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Connect dials the broker and waits for the connection.
func Connect(broker, clientID string) (mqtt.Client, error) {
	if clientID == "" {
		clientID = "motor-" + uuid.NewString()[:8]
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("mqtt connected")
	return client, nil
}

func Encode(snap domain.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func Decode(payload []byte) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.MotorID == "" {
		return domain.Snapshot{}, errors.New("decode snapshot: missing motor_id")
	}
	return snap, nil
}

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Publisher struct {
	client publishClient
	topic  string
}

func NewPublisher(client publishClient, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishSnapshot sends one snapshot at QoS 0.
func (p *Publisher) PublishSnapshot(snap domain.Snapshot) error {
	payload, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// Forward publishes every snapshot received on snaps until the channel
// closes or ctx is done. Failures are logged and skipped.
func (p *Publisher) Forward(ctx context.Context, snaps <-chan domain.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := p.PublishSnapshot(snap); err != nil {
				log.Error().Err(err).Str("topic", p.topic).Uint64("sequence", snap.Sequence).Msg("publish failed")
			}
		}
	}
}

type subscribeClient interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Subscribe decodes every message on topic and hands valid snapshots to
// handle. Undecodable payloads are logged and dropped.
func Subscribe(client subscribeClient, topic string, handle func(domain.Snapshot)) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		snap, err := Decode(msg.Payload())
		if err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("dropping message")
			return
		}
		handle(snap)
	}
	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}
