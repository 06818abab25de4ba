package events

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tphakala/audioqa/internal/logging"
)

// MQTTSinkConfig configures the optional MQTT fan-out sink. Every job event
// published on the bus is also republished, fire-and-forget, under
// "<Prefix>/job/<id>", "<Prefix>/project/<id>" and "<Prefix>/jobs/all".
type MQTTSinkConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
}

type mqttSink struct {
	client mqtt.Client
	prefix string
}

// AttachMQTTSink connects an MQTT client and wires it as an additional
// publish target for the bus. Connection failures are returned rather than
// silently swallowed, but once attached, individual publish failures are
// logged and dropped — the bus itself must never block on a broker hiccup.
func (b *JobBus) AttachMQTTSink(cfg MQTTSinkConfig) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return fmt.Errorf("mqtt sink: connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt sink: connection error: %w", err)
	}

	b.mqttSink.Store(&mqttSink{client: client, prefix: cfg.Prefix})
	return nil
}

// DetachMQTTSink disconnects and removes the MQTT sink, if one is attached.
func (b *JobBus) DetachMQTTSink() {
	if sink := b.mqttSink.Swap(nil); sink != nil && sink.client.IsConnected() {
		sink.client.Disconnect(250)
	}
}

func (s *mqttSink) publish(event JobEvent) {
	payload, err := encodeSSEData(event)
	if err != nil {
		return
	}

	logger := logging.ForService("events")
	for _, topic := range s.mqttTopics(event.GetJobID(), event.GetProjectID()) {
		// QoS 0, fire-and-forget: never wait on the token, never block the bus.
		token := s.client.Publish(topic, 0, false, payload)
		go func(t mqtt.Token, topic string) {
			if t.WaitTimeout(5*time.Second) && t.Error() != nil {
				logger.Debug("mqtt sink publish failed", "topic", topic, "error", t.Error())
			}
		}(token, topic)
	}
}

func (s *mqttSink) mqttTopics(jobID, projectID string) []string {
	topics := []string{
		fmt.Sprintf("%s/job/%s", s.prefix, jobID),
		fmt.Sprintf("%s/jobs/all", s.prefix),
	}
	if projectID != "" {
		topics = append(topics, fmt.Sprintf("%s/project/%s", s.prefix, projectID))
	}
	return topics
}
