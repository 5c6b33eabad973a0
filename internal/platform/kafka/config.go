package kafka

import "time"

// ProducerConfig holds configuration for the event producer.
type ProducerConfig struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	ClientID        string
}

// DefaultProducerConfig returns defaults suited to relaying outbox entries:
// full ISR acks so an entry is only marked processed once durable.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
		ClientID:        "vcissuer",
	}
}
