package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
)

type fakeAPI struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
	err    error
}

func (f *fakeAPI) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{}
		if f.failed > 0 {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func conceptEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewConceptDeleted(valueobjects.NewConceptID(), time.Now())
	}
	return out
}

func TestPublisher_ChunksBatches(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(api, "bus", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), conceptEvents(23)))

	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].Entries, 10)
	assert.Len(t, api.calls[2].Entries, 3)

	entry := api.calls[0].Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(entry.Source))
	assert.Equal(t, "concept.deleted", aws.ToString(entry.DetailType))
}

func TestPublisher_Failures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		p := NewPublisher(&fakeAPI{err: errors.New("boom")}, "bus", zap.NewNop())
		assert.Error(t, p.Publish(context.Background(), conceptEvents(1)[0]))
	})

	t.Run("failed entries", func(t *testing.T) {
		p := NewPublisher(&fakeAPI{failed: 1}, "bus", zap.NewNop())
		err := p.Publish(context.Background(), conceptEvents(1)[0])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 events failed")
	})

	t.Run("nothing to send", func(t *testing.T) {
		api := &fakeAPI{}
		p := NewPublisher(api, "bus", zap.NewNop())
		require.NoError(t, p.PublishBatch(context.Background(), nil))
		assert.Empty(t, api.calls)
	})
}
