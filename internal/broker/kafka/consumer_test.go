package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/zapshift/zapshift/internal/broker/messages"
	"github.com/zapshift/zapshift/internal/models"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed += len(msgs)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func trackedMsg(t *testing.T, ev messages.ParcelTracked) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.TrackingID), Value: b}
}

func TestConsumer_Consume_DecodesAndCommits(t *testing.T) {
	ev := messages.ParcelTracked{
		TrackingID: "PCL-20250618-A1B2C",
		Status:     models.TrackingEventInTransit,
		UpdatedBy:  "rider@mail.com",
	}
	fr := &fakeReader{
		msgs: []kafka.Message{trackedMsg(t, ev)},
		err:  errors.New("stop"),
	}
	c := newConsumerWithReader(fr)

	var got messages.ParcelTracked
	err := c.Consume(context.Background(), func(msg messages.ParcelTracked) error {
		got = msg
		return nil
	})
	require.Error(t, err)
	require.Equal(t, ev.TrackingID, got.TrackingID)
	require.Equal(t, ev.Status, got.Status)
	require.Equal(t, ev.UpdatedBy, got.UpdatedBy)
	require.Equal(t, 1, fr.committed)
}

func TestConsumer_Consume_SkipsMalformedPayload(t *testing.T) {
	ev := messages.ParcelTracked{TrackingID: "PCL-X", Status: models.TrackingEventDelivered}
	fr := &fakeReader{
		msgs: []kafka.Message{
			{Key: []byte("PCL-BAD"), Value: []byte("{not json")},
			trackedMsg(t, ev),
		},
		err: errors.New("stop"),
	}
	c := newConsumerWithReader(fr)

	var handled []string
	err := c.Consume(context.Background(), func(msg messages.ParcelTracked) error {
		handled = append(handled, msg.TrackingID)
		return nil
	})
	require.Error(t, err)
	// битое сообщение закоммичено, но до обработчика не дошло
	require.Equal(t, []string{"PCL-X"}, handled)
	require.Equal(t, 2, fr.committed)
}

func TestConsumer_Consume_HandlerErrorStopsWithoutCommit(t *testing.T) {
	ev := messages.ParcelTracked{TrackingID: "PCL-X", Status: models.TrackingEventInTransit}
	fr := &fakeReader{msgs: []kafka.Message{trackedMsg(t, ev)}}
	c := newConsumerWithReader(fr)

	want := errors.New("handler failed")
	err := c.Consume(context.Background(), func(msg messages.ParcelTracked) error { return want })
	require.ErrorIs(t, err, want)
	require.Contains(t, err.Error(), "PCL-X")
	require.Equal(t, 0, fr.committed)
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer([]string{"localhost:0"}, "t", "g")
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
