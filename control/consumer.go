package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type (
	// MessageReader is satisfied by [*kafka.Reader].
	MessageReader interface {
		ReadMessage(ctx context.Context) (kafka.Message, error)
		Close() error
	}
	// MessageWriter is satisfied by [*kafka.Writer].
	MessageWriter interface {
		WriteMessages(ctx context.Context, messages ...kafka.Message) error
		Close() error
	}
	// Consumer applies [Command] messages read from a topic
	// and publishes each [Response], keyed by command ID.
	Consumer struct {
		reader   MessageReader
		writer   MessageWriter // Optional.
		registry Registry
		logger   *log.Logger
	}
	// KafkaConfig locates the command and response topics.
	KafkaConfig struct {
		Brokers []string
		// Topic carries commands; GroupID commits their offsets.
		Topic, GroupID string
		// ReplyTopic receives responses; responses are dropped if empty.
		ReplyTopic string
	}
)

// NewConsumer creates a [Consumer] reading from reader.
// writer may be nil, in which case responses are only logged on error.
func NewConsumer(reader MessageReader, writer MessageWriter, registry Registry, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.Default()
	}
	return &Consumer{
		reader:   reader,
		writer:   writer,
		registry: registry,
		logger:   logger,
	}
}

// NewKafkaConsumer creates a [Consumer] for the configured Kafka topics.
func NewKafkaConsumer(config KafkaConfig, registry Registry, logger *log.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		GroupID:  config.GroupID,
		Topic:    config.Topic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	var writer MessageWriter
	if config.ReplyTopic != "" {
		writer = &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        config.ReplyTopic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return NewConsumer(reader, writer, registry, logger)
}

// Run applies commands until ctx is done or reading fails.
// Cancellation is not reported as an error.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		if err := c.handle(ctx, message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handle applies one message. Malformed commands are logged and skipped.
func (c *Consumer) handle(ctx context.Context, message kafka.Message) error {
	command, err := DecodeCommand(message.Value)
	if err != nil {
		c.logger.Printf("skipping message at offset %d: %v", message.Offset, err)
		return nil
	}
	response := Apply(c.registry, command)
	if response.Error != "" {
		c.logger.Printf("command %s (%s): %s", command.ID, command.Type, response.Error)
	}
	if c.writer == nil {
		return nil
	}
	encoded, err := response.Encode()
	if err != nil {
		return fmt.Errorf("encoding response %s: %w", response.ID, err)
	}
	if err := c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(response.ID),
		Value: encoded,
	}); err != nil {
		return fmt.Errorf("writing response %s: %w", response.ID, err)
	}
	return nil
}

func (c *Consumer) Close() error {
	var writerErr error
	if c.writer != nil {
		writerErr = c.writer.Close()
	}
	return errors.Join(c.reader.Close(), writerErr)
}
