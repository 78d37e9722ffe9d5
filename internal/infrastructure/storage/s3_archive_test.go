package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/giftcampaign/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 answers path-style object requests for one bucket
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]bool
	puts     []string
	headCode int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		if f.headCode != 0 {
			w.WriteHeader(f.headCode)
			return
		}
		if f.objects[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		f.objects[r.URL.Path] = true
		f.puts = append(f.puts, r.URL.Path)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestArchive(t *testing.T, fake *fakeS3) *S3Archive {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	archive, err := NewS3Archive(context.Background(), &config.StorageConfig{
		Endpoint:        server.URL,
		Region:          "us-east-1",
		Bucket:          "snapshots",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return archive
}

func TestNewS3Archive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Archive(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3Archive(context.Background(), &config.StorageConfig{AccessKeyID: "k", SecretAccessKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("valid config creates archive", func(t *testing.T) {
		archive, err := NewS3Archive(context.Background(), &config.StorageConfig{
			Bucket:          "snapshots",
			AccessKeyID:     "k",
			SecretAccessKey: "s",
			Endpoint:        "http://localhost:9000",
		})
		require.NoError(t, err)
		assert.Equal(t, "snapshots", archive.Bucket())
	})
}

func TestS3Archive_ExistsAndPut(t *testing.T) {
	fake := &fakeS3{objects: map[string]bool{}}
	archive := newTestArchive(t, fake)
	ctx := context.Background()

	exists, err := archive.Exists(ctx, "ORIAN/stock_010620240900.xml")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, archive.Put(ctx, "ORIAN/stock_010620240900.xml", []byte("<DATACOLLECTION/>")))
	assert.Equal(t, []string{"/snapshots/ORIAN/stock_010620240900.xml"}, fake.puts)

	exists, err = archive.Exists(ctx, "ORIAN/stock_010620240900.xml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestS3Archive_ExistsError(t *testing.T) {
	archive := newTestArchive(t, &fakeS3{objects: map[string]bool{}, headCode: http.StatusForbidden})

	_, err := archive.Exists(context.Background(), "ORIAN/a.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check object")
}

func TestS3Archive_EmptyKey(t *testing.T) {
	archive := newTestArchive(t, &fakeS3{objects: map[string]bool{}})

	_, err := archive.Exists(context.Background(), "")
	require.Error(t, err)
	require.Error(t, archive.Put(context.Background(), "", nil))
}

func TestMemoryArchive(t *testing.T) {
	archive := NewMemoryArchive()
	ctx := context.Background()

	exists, err := archive.Exists(ctx, "ORIAN/a.xml")
	require.NoError(t, err)
	assert.False(t, exists)

	body := []byte("data")
	require.NoError(t, archive.Put(ctx, "ORIAN/a.xml", body))
	body[0] = 'X'

	got, ok := archive.Get("ORIAN/a.xml")
	require.True(t, ok)
	assert.Equal(t, "data", string(got))

	exists, err = archive.Exists(ctx, "ORIAN/a.xml")
	require.NoError(t, err)
	assert.True(t, exists)
}
