package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var loadTestEnvOnce sync.Once

// testMongoURI resolves MONGO_URI for tests, loading the project root .env
// on first use. Empty when no test database is configured.
func testMongoURI() string {
	loadTestEnvOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
		if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
			godotenv.Load()
		}
	})
	return os.Getenv("MONGO_URI")
}

// SetupTestDB connects to the test MongoDB instance and returns the named
// database with the given collections dropped for a clean slate. Tests that
// need a real store are skipped when MONGO_URI is not configured.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()
	uri := testMongoURI()
	if uri == "" {
		t.Skip("MONGO_URI not set; skipping database-backed test")
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	require.NoError(t, err, "Failed to connect to MongoDB")
	db := client.Database(dbName)

	for _, collection := range collections {
		_ = db.Collection(collection).Drop(context.Background())
	}
	return db
}
