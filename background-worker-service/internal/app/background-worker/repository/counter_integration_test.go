//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"launchpad/background-worker-service/internal/app/background-worker/repository"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoURI string

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := mongoC.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mongo endpoint: %v\n", err)
		os.Exit(1)
	}
	mongoURI = endpoint

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

type CounterRepositoryIntegrationSuite struct {
	suite.Suite
	client *mongo.Client
	db     *mongo.Database
	repo   repository.CounterRepository
}

func TestCounterRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(CounterRepositoryIntegrationSuite))
}

func (s *CounterRepositoryIntegrationSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)
	s.client = client
	s.db = client.Database("launchpad_worker_test")
	s.repo = repository.NewCounterRepository(s.db)
}

func (s *CounterRepositoryIntegrationSuite) TearDownSuite() {
	_ = s.client.Disconnect(context.Background())
}

func (s *CounterRepositoryIntegrationSuite) SetupTest() {
	s.Require().NoError(s.db.Drop(context.Background()))
}

// seedProduct создает продукт со счетчиком stored и votes записями в реестре
func (s *CounterRepositoryIntegrationSuite) seedProduct(stored interface{}, votes int) primitive.ObjectID {
	ctx := context.Background()
	id := primitive.NewObjectID()

	product := bson.M{"_id": id, "name": "Product " + id.Hex()}
	if stored != nil {
		product["upvote_count"] = stored
	}
	_, err := s.db.Collection("products").InsertOne(ctx, product)
	s.Require().NoError(err)

	for i := 0; i < votes; i++ {
		_, err := s.db.Collection("upvotes").InsertOne(ctx, bson.M{
			"user_id":    fmt.Sprintf("user-%d", i),
			"product_id": id,
			"created_at": time.Now(),
		})
		s.Require().NoError(err)
	}

	return id
}

func (s *CounterRepositoryIntegrationSuite) upvoteCount(id primitive.ObjectID) int64 {
	var doc struct {
		UpvoteCount int64 `bson:"upvote_count"`
	}
	err := s.db.Collection("products").FindOne(context.Background(), bson.M{"_id": id}).Decode(&doc)
	s.Require().NoError(err)
	return doc.UpvoteCount
}

func (s *CounterRepositoryIntegrationSuite) TestFindDrift() {
	ctx := context.Background()

	s.seedProduct(int64(2), 2)
	inflated := s.seedProduct(int64(5), 1)
	missing := s.seedProduct(nil, 3)
	s.seedProduct(int64(0), 0)

	drifts, checked, err := s.repo.FindDrift(ctx)

	s.Require().NoError(err)
	s.Equal(int64(4), checked)
	s.Len(drifts, 2)

	byID := map[primitive.ObjectID][2]int64{}
	for _, d := range drifts {
		byID[d.ProductID] = [2]int64{d.Stored, d.Actual}
	}
	s.Equal([2]int64{5, 1}, byID[inflated])
	s.Equal([2]int64{0, 3}, byID[missing])
}

func (s *CounterRepositoryIntegrationSuite) TestFindProductDrift() {
	ctx := context.Background()

	synced := s.seedProduct(int64(1), 1)
	drifted := s.seedProduct(int64(0), 2)

	drift, err := s.repo.FindProductDrift(ctx, synced)
	s.Require().NoError(err)
	s.Nil(drift)

	drift, err = s.repo.FindProductDrift(ctx, drifted)
	s.Require().NoError(err)
	s.Require().NotNil(drift)
	s.Equal(int64(2), drift.Actual)

	_, err = s.repo.FindProductDrift(ctx, primitive.NewObjectID())
	s.ErrorIs(err, repository.ErrProductNotFound)
}

func (s *CounterRepositoryIntegrationSuite) TestSetUpvoteCount_CompareAndSet() {
	ctx := context.Background()
	id := s.seedProduct(int64(4), 2)

	updated, err := s.repo.SetUpvoteCount(ctx, id, 3, 2)
	s.Require().NoError(err)
	s.False(updated)
	s.Equal(int64(4), s.upvoteCount(id))

	updated, err = s.repo.SetUpvoteCount(ctx, id, 4, 2)
	s.Require().NoError(err)
	s.True(updated)
	s.Equal(int64(2), s.upvoteCount(id))
}

func (s *CounterRepositoryIntegrationSuite) TestSetUpvoteCount_MissingField() {
	ctx := context.Background()
	id := s.seedProduct(nil, 1)

	updated, err := s.repo.SetUpvoteCount(ctx, id, 0, 1)

	s.Require().NoError(err)
	s.True(updated)
	s.Equal(int64(1), s.upvoteCount(id))
}
