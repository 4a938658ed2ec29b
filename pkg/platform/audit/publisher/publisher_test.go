package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"agristack/pkg/domain"
	audit "agristack/pkg/platform/audit"
	"agristack/pkg/platform/audit/store/memory"
	"agristack/pkg/requestcontext"
)

// gatedStore blocks every Append until release is closed.
type gatedStore struct {
	*memory.InMemoryStore
	release chan struct{}
}

func (g *gatedStore) Append(ctx context.Context, e audit.Event) error {
	<-g.release
	return g.InMemoryStore.Append(ctx, e)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("sink down") }

type PublisherSuite struct {
	suite.Suite
	store    *memory.InMemoryStore
	operator domain.OperatorID
	fixed    time.Time
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.operator = domain.OperatorID(uuid.New())
	s.fixed = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
}

func (s *PublisherSuite) event(action audit.AuditEvent, subject string) audit.Event {
	return audit.Event{OperatorID: s.operator, Action: string(action), Subject: subject}
}

func (s *PublisherSuite) TestInlineEmitStampsEvent() {
	pub := NewPublisher(s.store)
	pub.now = func() time.Time { return s.fixed }
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-7")
	s.Require().NoError(pub.Emit(ctx, s.event(audit.EventFarmerRegistered, "farmers/1")))
	s.Require().NoError(pub.Emit(ctx, s.event(audit.EventExportGenerated, "farmers")))

	events, err := pub.List(context.Background(), s.operator)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(s.fixed, events[0].Timestamp)
	s.Equal("req-7", events[0].RequestID)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal(audit.CategoryOperations, events[1].Category)
}

func (s *PublisherSuite) TestExplicitFieldsAreKept() {
	pub := NewPublisher(s.store)
	defer pub.Close()

	at := s.fixed.Add(-time.Hour)
	e := s.event(audit.EventApprovalChanged, "inspections/9")
	e.Timestamp = at
	e.Category = audit.CategoryOperations
	e.RequestID = "upstream"
	s.Require().NoError(pub.Emit(context.Background(), e))

	events, err := s.store.ListByOperator(context.Background(), s.operator)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(at, events[0].Timestamp)
	s.Equal(audit.CategoryOperations, events[0].Category)
	s.Equal("upstream", events[0].RequestID)
}

func (s *PublisherSuite) TestAsyncDrainsOnClose() {
	pub := NewPublisher(s.store, WithAsyncBuffer(16))
	for range 10 {
		s.Require().NoError(pub.Emit(context.Background(), s.event(audit.EventOutreachLogged, "outreach/1")))
	}
	pub.Close()
	pub.Close()

	events, err := s.store.ListByOperator(context.Background(), s.operator)
	s.Require().NoError(err)
	s.Len(events, 10)
}

func (s *PublisherSuite) TestAsyncRejectsWhenBufferFull() {
	gated := &gatedStore{InMemoryStore: s.store, release: make(chan struct{})}
	pub := NewPublisher(gated, WithAsyncBuffer(1))

	// The worker takes the first event and blocks; the second fills the buffer.
	s.Require().NoError(pub.Emit(context.Background(), s.event(audit.EventPhotoUploaded, "a")))
	s.Eventually(func() bool { return len(pub.buffer) == 0 }, time.Second, 5*time.Millisecond)
	s.Require().NoError(pub.Emit(context.Background(), s.event(audit.EventPhotoUploaded, "b")))

	err := pub.Emit(context.Background(), s.event(audit.EventPhotoUploaded, "c"))
	s.ErrorIs(err, ErrBufferFull)

	close(gated.release)
	pub.Close()
	events, err := s.store.ListByOperator(context.Background(), s.operator)
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *PublisherSuite) TestAsyncRejectsCancelledContext() {
	pub := NewPublisher(s.store, WithAsyncBuffer(4))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(pub.Emit(ctx, s.event(audit.EventRecordDeleted, "farmers/2")), context.Canceled)
}

func (s *PublisherSuite) TestListSeparatesOperators() {
	pub := NewPublisher(s.store)
	defer pub.Close()

	other := domain.OperatorID(uuid.New())
	s.Require().NoError(pub.Emit(context.Background(), s.event(audit.EventFarmerUpdated, "farmers/1")))
	s.Require().NoError(pub.Emit(context.Background(), audit.Event{OperatorID: other, Action: string(audit.EventFarmerUpdated)}))

	mine, err := pub.List(context.Background(), s.operator)
	s.Require().NoError(err)
	s.Len(mine, 1)

	recent, err := s.store.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Len(recent, 2)
}

func TestTeeKeepsPrimaryAndReportsSinkErrors(t *testing.T) {
	primary := memory.NewInMemoryStore()
	pub := NewPublisher(audit.Tee{primary, failingStore{}})
	defer pub.Close()

	op := domain.OperatorID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{OperatorID: op, Action: string(audit.EventExportEmpty)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")

	events, err := pub.List(context.Background(), op)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestListWithoutListerFails(t *testing.T) {
	pub := NewPublisher(failingStore{})
	defer pub.Close()
	_, err := pub.List(context.Background(), domain.OperatorID(uuid.New()))
	assert.Error(t, err)
}
