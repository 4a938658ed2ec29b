//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"agristack/pkg/domain"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/audit/publishers/kafka"
	"agristack/pkg/testutil/containers"
)

func TestSinkProducesJSONEvents(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sink, err := kafka.NewSink(rp.Brokers, "agristack.audit.test")
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	// A second call must tolerate the existing topic.
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))

	operator := domain.OperatorID(uuid.New())
	require.NoError(t, sink.Append(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		OperatorID: operator,
		Action:     string(audit.EventFarmerRegistered),
		Subject:    "farmers/abc",
		Timestamp:  time.Now().UTC(),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics("agristack.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "farmers/abc", string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, operator, got.OperatorID)
	assert.Equal(t, string(audit.EventFarmerRegistered), got.Action)
}
