// Package source provides the MQTT-backed event source adapter.
//
// It translates broker topics into the abstract change events the
// monitoring engine consumes:
//
//	warehouses/<id>/config   retained config document; an empty payload
//	                         means the warehouse was removed
//	sensors/<id>/reading     one sensor reading for warehouse <id>
//	users/snapshot           full user-collection snapshot
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"warehousemon/internal/config"
	"warehousemon/internal/store"
)

const (
	topicConfigs  = "warehouses/+/config"
	topicReadings = "sensors/+/reading"
	topicUsers    = "users/snapshot"
)

// MQTT is the broker-backed event source. It satisfies store.EventSource for
// the engine and store.ReadingPublisher for the simulator.
type MQTT struct {
	cfg    config.BrokerConfig
	client mqtt.Client

	mu        sync.RWMutex
	connected bool

	// topic filter -> paho callback, resubscribed on every reconnect
	subs map[string]mqtt.MessageHandler
}

var (
	_ store.EventSource      = (*MQTT)(nil)
	_ store.ReadingPublisher = (*MQTT)(nil)
)

// New creates the MQTT adapter. Connect is deferred to Start.
func New(cfg config.BrokerConfig) (*MQTT, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("broker URL is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("warehousemon-%d", time.Now().UnixNano())
	}
	return &MQTT{
		cfg:  cfg,
		subs: make(map[string]mqtt.MessageHandler),
	}, nil
}

// Start connects to the broker. Reconnects are handled by the client;
// registered subscriptions are replayed on every successful (re)connect.
func (m *MQTT) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.URL)
	opts.SetClientID(m.cfg.ClientID)

	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
	}
	if m.cfg.Password != "" {
		opts.SetPassword(m.cfg.Password)
	}

	opts.SetKeepAlive(m.cfg.KeepAlive)
	opts.SetConnectTimeout(m.cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onConnectionLost)

	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", m.cfg.URL).Str("client_id", m.cfg.ClientID).Msg("MQTT event source started")
	return nil
}

// Stop disconnects from the broker.
func (m *MQTT) Stop() {
	if m.client == nil {
		return
	}
	m.client.Disconnect(250)
	log.Info().Msg("MQTT event source stopped")
}

// IsConnected returns the connection status.
func (m *MQTT) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SubscribeConfigs delivers warehouse-config change events. A retained
// document on the config topic upserts the warehouse; an empty payload
// removes it.
func (m *MQTT) SubscribeConfigs(ctx context.Context, handler func(store.ConfigEvent)) error {
	return m.subscribe(ctx, topicConfigs, func(_ mqtt.Client, msg mqtt.Message) {
		warehouseID, ok := topicSegment(msg.Topic(), 1)
		if !ok {
			log.Warn().Str("topic", msg.Topic()).Msg("Malformed config topic")
			return
		}

		if len(msg.Payload()) == 0 {
			handler(store.ConfigEvent{Kind: store.ConfigRemoved, WarehouseID: warehouseID})
			return
		}

		var cfg store.WarehouseConfig
		if err := json.Unmarshal(msg.Payload(), &cfg); err != nil {
			log.Warn().Str("warehouse_id", warehouseID).Err(err).Msg("Undecodable config payload")
			return
		}
		cfg.ID = warehouseID
		handler(store.ConfigEvent{Kind: store.ConfigChanged, WarehouseID: warehouseID, Config: &cfg})
	})
}

// SubscribeReadings delivers sensor readings. The topic's middle segment is
// the warehouse identifier.
func (m *MQTT) SubscribeReadings(ctx context.Context, handler func(store.ReadingEvent)) error {
	return m.subscribe(ctx, topicReadings, func(_ mqtt.Client, msg mqtt.Message) {
		warehouseID, ok := topicSegment(msg.Topic(), 1)
		if !ok {
			log.Warn().Str("topic", msg.Topic()).Msg("Malformed reading topic")
			return
		}

		var reading store.SensorReading
		if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
			log.Warn().Str("warehouse_id", warehouseID).Err(err).Msg("Undecodable reading payload")
			return
		}
		handler(store.ReadingEvent{WarehouseID: warehouseID, Reading: reading})
	})
}

// SubscribeUsers delivers full user-collection snapshots.
func (m *MQTT) SubscribeUsers(ctx context.Context, handler func(store.UserSnapshot)) error {
	return m.subscribe(ctx, topicUsers, func(_ mqtt.Client, msg mqtt.Message) {
		var snapshot store.UserSnapshot
		if err := json.Unmarshal(msg.Payload(), &snapshot); err != nil {
			log.Warn().Err(err).Msg("Undecodable user snapshot")
			return
		}
		handler(snapshot)
	})
}

// PublishReading injects a reading through the same topic real sensors use.
func (m *MQTT) PublishReading(ctx context.Context, warehouseID string, reading store.SensorReading) error {
	if !m.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to encode reading: %w", err)
	}

	topic := fmt.Sprintf("sensors/%s/reading", warehouseID)
	token := m.client.Publish(topic, byte(m.cfg.QoS), false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish reading: %w", token.Error())
	}
	return nil
}

// subscribe registers a topic callback and remembers it for resubscription
// after reconnects. The subscription lives until ctx is cancelled.
func (m *MQTT) subscribe(ctx context.Context, filter string, callback mqtt.MessageHandler) error {
	m.mu.Lock()
	m.subs[filter] = callback
	connected := m.connected
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(filter)
	}()

	if !connected {
		// onConnect will pick it up.
		return nil
	}

	if token := m.client.Subscribe(filter, byte(m.cfg.QoS), callback); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, token.Error())
	}
	log.Debug().Str("topic", filter).Msg("Subscribed to topic")
	return nil
}

// unsubscribe drops a topic callback so reconnects no longer replay it, and
// detaches from the broker when still connected.
func (m *MQTT) unsubscribe(filter string) {
	m.mu.Lock()
	delete(m.subs, filter)
	connected := m.connected
	m.mu.Unlock()

	if !connected || m.client == nil {
		return
	}
	if token := m.client.Unsubscribe(filter); token.Wait() && token.Error() != nil {
		log.Warn().Str("topic", filter).Err(token.Error()).Msg("Failed to unsubscribe from topic")
		return
	}
	log.Debug().Str("topic", filter).Msg("Unsubscribed from topic")
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.mu.Lock()
	m.connected = true
	subs := make(map[string]mqtt.MessageHandler, len(m.subs))
	for filter, cb := range m.subs {
		subs[filter] = cb
	}
	m.mu.Unlock()

	log.Info().Msg("Connected to MQTT broker")

	for filter, cb := range subs {
		if token := client.Subscribe(filter, byte(m.cfg.QoS), cb); token.Wait() && token.Error() != nil {
			log.Error().Str("topic", filter).Err(token.Error()).Msg("Failed to subscribe to topic")
		} else {
			log.Debug().Str("topic", filter).Msg("Subscribed to topic")
		}
	}
}

func (m *MQTT) onConnectionLost(_ mqtt.Client, err error) {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()

	log.Warn().Err(err).Msg("Lost connection to MQTT broker")
}

// topicSegment returns the n-th slash-separated segment of a topic.
func topicSegment(topic string, n int) (string, bool) {
	parts := strings.Split(topic, "/")
	if n >= len(parts) || parts[n] == "" {
		return "", false
	}
	return parts[n], true
}
