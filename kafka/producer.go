package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-svc/config"
	"storefront-svc/middleware"
	"storefront-svc/models"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const EventOrderPlaced = "order_placed"

func InitProducer(cfg config.KafkaConfig, logger *zap.Logger) (sarama.SyncProducer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 2
	saramaCfg.Producer.Timeout = cfg.Timeout
	saramaCfg.Net.DialTimeout = cfg.Timeout
	saramaCfg.Net.ReadTimeout = cfg.Timeout
	saramaCfg.Net.WriteTimeout = cfg.Timeout
	saramaCfg.Metadata.Retry.Max = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Brokers))
	return producer, nil
}

// OrderEventPublisher announces committed orders to downstream consumers.
// A publish waits at most timeout; a send still in flight after that is left
// to finish in the background and only logged.
type OrderEventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewOrderEventPublisher(producer sarama.SyncProducer, topic string, timeout time.Duration, logger *zap.Logger) *OrderEventPublisher {
	return &OrderEventPublisher{producer: producer, topic: topic, timeout: timeout, logger: logger}
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

func NewOrderEvent(order models.Order) models.OrderEvent {
	items := make([]models.OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, models.OrderEventItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return models.OrderEvent{
		EventType: EventOrderPlaced,
		OrderID:   order.ID.String(),
		UserID:    order.UserID,
		Total:     order.Total(),
		Items:     items,
		CreatedAt: order.CreatedAt,
	}
}

func (p *OrderEventPublisher) PublishOrderPlaced(ctx context.Context, order models.Order) error {
	eventJSON, err := json.Marshal(NewOrderEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(order.ID.String()),
		Value: sarama.ByteEncoder(eventJSON),
	}

	// Inject trace context into Kafka message headers
	carrier := make(saramaHeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = []sarama.RecordHeader(carrier)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan sendResult, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil && ctx.Err() != nil {
			p.logger.Warn("Late event send failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
		done <- sendResult{partition: partition, offset: offset, err: err}
	}()

	var res sendResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return fmt.Errorf("failed to send message: %w", ctx.Err())
	}
	if res.err != nil {
		return fmt.Errorf("failed to send message: %w", res.err)
	}
	partition, offset := res.partition, res.offset

	p.logger.Info("Event published",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("event_type", EventOrderPlaced),
		zap.String("order_id", order.ID.String()),
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// saramaHeaderCarrier adapts Kafka record headers to a propagation.TextMapCarrier.
type saramaHeaderCarrier []sarama.RecordHeader

func (c saramaHeaderCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *saramaHeaderCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{
		Key:   []byte(key),
		Value: []byte(value),
	})
}

func (c saramaHeaderCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
