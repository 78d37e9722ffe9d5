package logistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    []RemoteFile
	bodies   map[string]string
	fetchErr map[string]error
	fetched  []string
}

func (s *fakeSource) List(context.Context) ([]RemoteFile, error) { return s.files, nil }

func (s *fakeSource) Fetch(_ context.Context, name string) ([]byte, error) {
	s.fetched = append(s.fetched, name)
	if err := s.fetchErr[name]; err != nil {
		return nil, err
	}
	return []byte(s.bodies[name]), nil
}

type fakeArchive struct {
	objects map[string][]byte
}

func (a *fakeArchive) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.objects[key]
	return ok, nil
}

func (a *fakeArchive) Put(_ context.Context, key string, body []byte) error {
	a.objects[key] = body
	return nil
}

const stockXML = `<DATACOLLECTION><DATA><SKU>MUG-1</SKU><QTY>5</QTY></DATA></DATACOLLECTION>`

func TestSnapshotSyncService_Sync(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	now := time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC)

	source := &fakeSource{
		files: []RemoteFile{
			{Name: "STOCK_NKS_010720240600.xml", ModTime: now.Add(-time.Hour)},
			{Name: "STOCK_NKS_200620240600.xml", ModTime: now.Add(-10 * 24 * time.Hour)},
			{Name: "readme.txt", ModTime: now},
			{Name: "STOCK_NKS_020720240600.xml", ModTime: now},
			{Name: "STOCK_NKS_030720240600.xml", ModTime: now},
		},
		bodies: map[string]string{
			"STOCK_NKS_010720240600.xml": stockXML,
			"STOCK_NKS_020720240600.xml": stockXML,
		},
		fetchErr: map[string]error{"STOCK_NKS_030720240600.xml": errors.New("connection reset")},
	}
	archive := &fakeArchive{objects: map[string][]byte{
		"ORIAN/STOCK_NKS_020720240600.xml": []byte(stockXML),
	}}
	svc := NewSnapshotSyncService(source, archive, env.ingestion(), time.UTC, nil)
	svc.now = func() time.Time { return now }

	n, err := svc.Sync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOCK_NKS_030720240600.xml")
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"STOCK_NKS_010720240600.xml", "STOCK_NKS_030720240600.xml"}, source.fetched)
	assert.Contains(t, archive.objects, "ORIAN/STOCK_NKS_010720240600.xml")
	assert.NotContains(t, archive.objects, "ORIAN/STOCK_NKS_030720240600.xml")

	tasks := env.pendingTasks(t)
	require.Len(t, tasks, 1)
	var args ProcessEventArgs
	require.NoError(t, tasks[0].DecodeArgs(&args))

	stored := env.loadEvent(t, args.EventID)
	assert.Equal(t, logistics.MessageTypeSnapshot, stored.MessageType)
	assert.Equal(t, "STOCK_NKS_010720240600.xml", stored.SourceRef)
	require.NotNil(t, stored.OccurredAt)
	assert.True(t, stored.OccurredAt.Equal(time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)))
}

func TestParseSnapshotFileTime(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	got, err := ParseSnapshotFileTime("STOCK_NKS_010720240900.xml", jerusalem)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)))

	for _, name := range []string{"stock.xml", "STOCK_NKS_yesterday.xml", "STOCK_NKS_321320240900.xml"} {
		_, err := ParseSnapshotFileTime(name, time.UTC)
		assert.Error(t, err, name)
	}
}
