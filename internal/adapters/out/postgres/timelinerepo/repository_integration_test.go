package timelinerepo_test

import (
	"context"
	"testing"
	"time"

	"lastmile/internal/adapters/out/postgres/timelinerepo"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TimelineRepositoryIntegrationTestSuite verifies the append-only log against
// a real PostgreSQL instance, including the unique per-order sequence guard.
type TimelineRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *timelinerepo.GormTimelineRepository
}

func (suite *TimelineRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	// TranslateError turns the unique index violation into gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&timelinerepo.TimelineEventDTO{}))
}

func (suite *TimelineRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE timeline_events").Error)
	suite.repository = timelinerepo.NewGormTimelineRepository(suite.db)
}

func (suite *TimelineRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *TimelineRepositoryIntegrationTestSuite) TestAppendAndGetByOrder_RoundTrips() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	rider, err := order.NewActor(order.ActorKindRider, "rider-7")
	suite.Require().NoError(err)
	occurredAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	creation := suite.newEvent(orderID, 1, nil, order.Pending, order.SystemActor(), "order created", occurredAt)
	previous := order.Pending
	assigned := suite.newEvent(orderID, 2, &previous, order.Assigned, rider, "rider accepted",
		occurredAt.Add(time.Minute))

	suite.Require().NoError(suite.repository.Append(ctx, creation))
	suite.Require().NoError(suite.repository.Append(ctx, assigned))

	events, err := suite.repository.GetByOrder(ctx, orderID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	suite.Equal(int64(1), events[0].Seq())
	suite.Nil(events[0].From())
	suite.Equal(order.Pending, events[0].To())
	suite.Equal(order.ActorKindSystem, events[0].Actor().Kind())
	suite.Equal("order created", events[0].Reason())

	suite.Equal(int64(2), events[1].Seq())
	suite.Require().NotNil(events[1].From())
	suite.Equal(order.Pending, *events[1].From())
	suite.Equal(order.Assigned, events[1].To())
	suite.Equal("rider-7", events[1].Actor().ID())
	suite.True(events[1].OccurredAt().Equal(occurredAt.Add(time.Minute)))
}

func (suite *TimelineRepositoryIntegrationTestSuite) TestGetByOrder_ReturnsAscendingSeq() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	now := time.Now().UTC()

	// Insert out of order; reads must come back sorted by sequence.
	previous := order.Pending
	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(orderID, 3, &previous, order.Cancelled, order.SystemActor(), "", now)))
	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(orderID, 1, nil, order.Pending, order.SystemActor(), "", now)))
	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(orderID, 2, &previous, order.Assigned, order.SystemActor(), "", now)))

	events, err := suite.repository.GetByOrder(ctx, orderID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 3)
	for i, event := range events {
		suite.Equal(int64(i+1), event.Seq())
	}
}

func (suite *TimelineRepositoryIntegrationTestSuite) TestAppend_DuplicateSeq_ReturnsVersionError() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	now := time.Now().UTC()

	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(orderID, 1, nil, order.Pending, order.SystemActor(), "", now)))

	// A second writer racing to the same sequence loses.
	err := suite.repository.Append(ctx,
		suite.newEvent(orderID, 1, nil, order.Pending, order.SystemActor(), "", now))
	suite.Require().ErrorIs(err, errs.ErrVersionIsInvalid)

	events, err := suite.repository.GetByOrder(ctx, orderID)
	suite.Require().NoError(err)
	suite.Len(events, 1)
}

func (suite *TimelineRepositoryIntegrationTestSuite) TestAppend_SameSeqDifferentOrders_BothSucceed() {
	ctx := context.Background()
	now := time.Now().UTC()
	firstOrder := kernel.NewUUID()
	secondOrder := kernel.NewUUID()

	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(firstOrder, 1, nil, order.Pending, order.SystemActor(), "", now)))
	suite.Require().NoError(suite.repository.Append(ctx,
		suite.newEvent(secondOrder, 1, nil, order.Pending, order.SystemActor(), "", now)))
}

func (suite *TimelineRepositoryIntegrationTestSuite) TestGetByOrder_UnknownOrder_ReturnsEmptySlice() {
	events, err := suite.repository.GetByOrder(context.Background(), kernel.NewUUID())

	suite.Require().NoError(err)
	suite.NotNil(events)
	suite.Empty(events)
}

func (suite *TimelineRepositoryIntegrationTestSuite) newEvent(
	orderID kernel.UUID,
	seq int64,
	from *order.Status,
	to order.Status,
	actor order.Actor,
	reason string,
	occurredAt time.Time,
) order.TimelineEvent {
	event, err := order.NewTimelineEvent(kernel.NewUUID(), orderID, seq, from, to, actor, reason, occurredAt)
	suite.Require().NoError(err)
	return event
}

func TestTimelineRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(TimelineRepositoryIntegrationTestSuite))
}
