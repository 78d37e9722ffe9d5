package logistics

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	snapshotFileTimeLayout = "020120061504"
	snapshotMaxAge         = 7 * 24 * time.Hour
	snapshotArchivePrefix  = "ORIAN/"
)

// RemoteFile describes a file offered by a SnapshotSource
type RemoteFile struct {
	Name    string
	ModTime time.Time
}

// SnapshotSource lists and downloads stock report files
type SnapshotSource interface {
	List(ctx context.Context) ([]RemoteFile, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SnapshotArchive keeps a copy of every stock report file processed
type SnapshotArchive interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// SnapshotSyncService pulls Orian stock report files, archives them and
// ingests each as a SNAPSHOT event
type SnapshotSyncService struct {
	source    SnapshotSource
	archive   SnapshotArchive
	ingestion *IngestionService
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewSnapshotSyncService creates the service. File names carry their time in loc.
func NewSnapshotSyncService(source SnapshotSource, archive SnapshotArchive, ingestion *IngestionService, loc *time.Location, log *zap.Logger) *SnapshotSyncService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotSyncService{
		source:    source,
		archive:   archive,
		ingestion: ingestion,
		location:  loc,
		now:       time.Now,
		logger:    log.Named("snapshot_sync"),
	}
}

// HandleTask runs TaskSyncSnapshots
func (s *SnapshotSyncService) HandleTask(ctx context.Context, _ *shared.Task) error {
	_, err := s.Sync(ctx)
	return err
}

// Sync processes files modified within the last week that are not archived
// yet. A file is archived only after its event is stored, so a failure is
// picked up again by the next run. It returns the number of files ingested.
func (s *SnapshotSyncService) Sync(ctx context.Context) (int, error) {
	files, err := s.source.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list snapshot files: %w", err)
	}

	cutoff := s.now().Add(-snapshotMaxAge)
	ingested := 0
	var errs []error
	for _, f := range files {
		if f.ModTime.Before(cutoff) {
			continue
		}
		takenAt, err := ParseSnapshotFileTime(f.Name, s.location)
		if err != nil {
			s.logger.Warn("skipping snapshot file with unexpected name", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		done, err := s.syncFile(ctx, f.Name, takenAt)
		if err != nil {
			s.logger.Error("snapshot file failed", zap.String("file", f.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		if done {
			ingested++
		}
	}

	s.logger.Info("snapshot sync finished",
		zap.Int("files", len(files)),
		zap.Int("ingested", ingested),
		zap.Int("failed", len(errs)),
	)
	return ingested, errors.Join(errs...)
}

func (s *SnapshotSyncService) syncFile(ctx context.Context, name string, takenAt time.Time) (bool, error) {
	key := snapshotArchivePrefix + name
	exists, err := s.archive.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check archive: %w", err)
	}
	if exists {
		return false, nil
	}

	body, err := s.source.Fetch(ctx, name)
	if err != nil {
		return false, fmt.Errorf("download: %w", err)
	}
	if _, err := s.ingestion.Ingest(ctx, IngestRequest{
		Provider:   logistics.ProviderOrian,
		WireType:   string(logistics.MessageTypeSnapshot),
		Body:       body,
		DeliveryID: key,
		SourceRef:  name,
		OccurredAt: &takenAt,
	}); err != nil {
		return false, err
	}
	if err := s.archive.Put(ctx, key, body); err != nil {
		return false, fmt.Errorf("archive: %w", err)
	}
	return true, nil
}

// ParseSnapshotFileTime reads the report time from the third underscore
// separated part of a file name, as in "STOCK_NKS_010720240600.xml"
func ParseSnapshotFileTime(name string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("snapshot file name %q has no time part", name)
	}
	stamp := strings.TrimSuffix(parts[2], path.Ext(parts[2]))
	t, err := time.ParseInLocation(snapshotFileTimeLayout, stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot file name %q: %w", name, err)
	}
	return t, nil
}
