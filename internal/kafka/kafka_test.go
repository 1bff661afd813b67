package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ms-attendance/internal/config"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var topics = config.TopicConfig{
	EventInitialized:     "t.init",
	EventEdited:          "t.edit",
	EventClosed:          "t.close",
	Registered:           "t.reg",
	RegistrationCanceled: "t.cancel",
	CredentialMinted:     "t.mint",
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs  []kafka.Message
	err   error
	reads int
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.reads++
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) Close() error { return nil }

func TestTopicForEveryInstruction(t *testing.T) {
	p := &Producer{Topics: topics}
	cases := map[string]string{
		"initialize_event":    "t.init",
		"edit_event":          "t.edit",
		"close_event":         "t.close",
		"register_event":      "t.reg",
		"cancel_registration": "t.cancel",
		"mint_nft":            "t.mint",
	}
	for instruction, want := range cases {
		got, err := p.TopicFor(instruction)
		require.NoError(t, err)
		assert.Equal(t, want, got, instruction)
	}

	_, err := p.TopicFor("transfer")
	assert.Error(t, err)
}

func TestPublishActivityKeysByEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topics: topics, Logger: logger.Discard()}

	activity := models.Activity{TxID: "tx-1", Instruction: "register_event", Event: "EvT", Registered: 2, Total: 10}
	require.NoError(t, p.PublishActivity(context.Background(), activity))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "t.reg", w.msgs[0].Topic)
	assert.Equal(t, []byte("EvT"), w.msgs[0].Key)

	var decoded models.Activity
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, activity, decoded)
}

func TestPublishActivityPropagatesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{Writer: &fakeWriter{err: boom}, Topics: topics}
	err := p.PublishActivity(context.Background(), models.Activity{Instruction: "mint_nft"})
	assert.ErrorIs(t, err, boom)
}

func TestConsumerSkipsUndecodableMessages(t *testing.T) {
	good, err := json.Marshal(models.Activity{TxID: "tx-2", Instruction: "mint_nft"})
	require.NoError(t, err)
	c := &Consumer{
		reader: &fakeReader{msgs: []kafka.Message{
			{Topic: "t.mint", Value: []byte("{not json")},
			{Topic: "t.mint", Value: good},
		}},
		log: logger.Discard(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var got []models.Activity
	require.NoError(t, c.Start(ctx, func(a models.Activity) {
		got = append(got, a)
		cancel()
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "tx-2", got[0].TxID)
}

func TestConsumerBacksOffOnReadErrors(t *testing.T) {
	reader := &fakeReader{err: errors.New("broker unreachable")}
	c := &Consumer{reader: reader, log: logger.Discard(), RetryDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, c.Start(ctx, func(models.Activity) {
		t.Fatal("no activity expected")
	}))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.LessOrEqual(t, reader.reads, 4)
}
