package control_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"
	"github.com/segmentio/kafka-go"

	"github.com/djdv/go-flowpool/control"
	"github.com/djdv/go-flowpool/packet"
)

// scriptedReader returns its messages in order,
// then cancels the run and reports cancellation.
type scriptedReader struct {
	messages []kafka.Message
	cancel   context.CancelFunc
	closed   bool
}

func (sr *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(sr.messages) == 0 {
		sr.cancel()
		return kafka.Message{}, ctx.Err()
	}
	message := sr.messages[0]
	sr.messages = sr.messages[1:]
	return message, nil
}

func (sr *scriptedReader) Close() error {
	sr.closed = true
	return nil
}

type recordingWriter struct {
	written []kafka.Message
	closed  bool
}

func (rw *recordingWriter) WriteMessages(_ context.Context, messages ...kafka.Message) error {
	rw.written = append(rw.written, messages...)
	return nil
}

func (rw *recordingWriter) Close() error {
	rw.closed = true
	return nil
}

func TestConsumer(t *testing.T) {

	biff.Alternative("Consumer", func(a *biff.A) {

		var (
			service, _  = newService(t)
			ctx, cancel = context.WithCancel(context.Background())
			add         = control.NewCommand(control.CommandAddFlow)
			list        = control.NewCommand(control.CommandListFlows)
			flow        = testFlow("flow-1", packet.Forward)
		)
		defer cancel()
		add.Flow = &flow
		reader := &scriptedReader{
			messages: []kafka.Message{
				{Value: mustEncode(t, add)},
				{Value: []byte("not json"), Offset: 1},
				{Value: mustEncode(t, list)},
			},
			cancel: cancel,
		}

		a.Alternative("With replies", func(a *biff.A) {
			writer := new(recordingWriter)
			consumer := control.NewConsumer(reader, writer, service, quiet)
			biff.AssertNil(consumer.Run(ctx))
			biff.AssertEqual(len(writer.written), 2)

			first, err := control.DecodeResponse(writer.written[0].Value)
			biff.AssertNil(err)
			biff.AssertEqual(string(writer.written[0].Key), add.ID)
			biff.AssertEqual(first.Count, 1)

			second, err := control.DecodeResponse(writer.written[1].Value)
			biff.AssertNil(err)
			biff.AssertEqual(second.ID, list.ID)
			biff.AssertEqual(flowIDs(second.Flows), []string{"flow-1"})

			biff.AssertNil(consumer.Close())
			biff.AssertTrue(reader.closed)
			biff.AssertTrue(writer.closed)
		})

		a.Alternative("Without replies", func(a *biff.A) {
			consumer := control.NewConsumer(reader, nil, service, quiet)
			biff.AssertNil(consumer.Run(ctx))
			biff.AssertEqual(service.Stats().Flows, 1)
			biff.AssertNil(consumer.Close())
		})
	})
}

type failingReader struct{ err error }

func (fr failingReader) ReadMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, fr.err
}

func (failingReader) Close() error { return nil }

func TestConsumerReadFailure(t *testing.T) {
	var (
		service, _ = newService(t)
		failure    = errors.New("broker unreachable")
		consumer   = control.NewConsumer(failingReader{failure}, nil, service, quiet)
	)
	if err := consumer.Run(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("expected read failure but got: %v", err)
	}
}

func mustEncode(tb testing.TB, command control.Command) []byte {
	tb.Helper()
	encoded, err := command.Encode()
	if err != nil {
		tb.Fatal(err)
	}
	return encoded
}
