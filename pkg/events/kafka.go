package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
)

// KafkaPublisher writes events to one Kafka topic, keyed by entity kind so the
// events of one kind stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	listener *LoggingListener
}

// NewKafkaConfig returns a sync producer configuration
func NewKafkaConfig(retries, maxMessageBytes int) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0

	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = retries
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 50 * time.Millisecond
	config.Producer.MaxMessageBytes = maxMessageBytes
	return config
}

// NewKafkaPublisher connects a sync producer to the comma separated brokers
func NewKafkaPublisher(brokers, topic string, config *sarama.Config, logger logging.Logger, reg *metrics.Registry) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger, reg), nil
}

// NewKafkaPublisherWithProducer uses an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger logging.Logger, reg *metrics.Registry) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic}
	p.listener = NewLoggingListener("kafka", p.Notify, logger, reg)
	return p
}

// Notify sends ev and waits for the broker acknowledgement
func (p *KafkaPublisher) Notify(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Topic()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("op"), Value: []byte(ev.Op)},
			{Key: []byte("event_id"), Value: []byte(ev.ID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send event to %s: %w", p.topic, err)
	}
	return nil
}

// OnEvent implements Listener
func (p *KafkaPublisher) OnEvent(ev Event) {
	p.listener.OnEvent(ev)
}

// Close closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
