package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Manager owns the MongoDB client and caches collection handles.
type Manager struct {
	client      *mongo.Client
	database    *mongo.Database
	collections map[string]*mongo.Collection
	mu          sync.RWMutex
	config      *Config
}

type Config struct {
	MongoURI        string
	DatabaseName    string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	ServerTimeout   time.Duration
	SocketTimeout   time.Duration
}

// DefaultConfig returns pool and timeout settings suited to a single API node.
func DefaultConfig(uri, name string) *Config {
	return &Config{
		MongoURI:        uri,
		DatabaseName:    name,
		MaxPoolSize:     50,
		MinPoolSize:     5,
		MaxConnIdleTime: 30 * time.Second,
		ConnectTimeout:  10 * time.Second,
		ServerTimeout:   10 * time.Second,
		SocketTimeout:   15 * time.Second,
	}
}

func NewManager() *Manager {
	return &Manager{collections: make(map[string]*mongo.Collection)}
}

// Connect dials MongoDB and verifies the primary is reachable.
func (m *Manager) Connect(ctx context.Context, config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return fmt.Errorf("database already initialized")
	}

	clientOptions := options.Client().
		ApplyURI(config.MongoURI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxConnIdleTime).
		SetServerSelectionTimeout(config.ServerTimeout).
		SetSocketTimeout(config.SocketTimeout).
		SetConnectTimeout(config.ConnectTimeout).
		SetRetryWrites(true).
		SetRetryReads(true)

	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.config = config
	m.client = client
	m.database = client.Database(config.DatabaseName)

	logrus.WithField("database", config.DatabaseName).Info("Connected to MongoDB")
	return nil
}

// GetCollection returns a cached collection handle
func (m *Manager) GetCollection(name string) *mongo.Collection {
	m.mu.RLock()
	if collection, exists := m.collections[name]; exists {
		m.mu.RUnlock()
		return collection
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if collection, exists := m.collections[name]; exists {
		return collection
	}

	collection := m.database.Collection(name)
	m.collections[name] = collection
	return collection
}

// Close disconnects the client; it is safe to call on an unconnected manager.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	m.client = nil
	m.database = nil
	m.collections = make(map[string]*mongo.Collection)

	logrus.Info("Database connection closed")
	return nil
}

// HealthCheck verifies database connectivity
func (m *Manager) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("database not initialized")
	}

	return client.Ping(ctx, readpref.Primary())
}
