package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"giveawaybot/internal/domain"
)

// currentVersion is the envelope version written by Save.
// Documents without a version come from the first Python release of the bot.
const currentVersion = 2

// SnapshotRepo implements repository.SnapshotStore on a single JSON document
type SnapshotRepo struct {
	path string
	mu   sync.Mutex
}

// NewSnapshotRepo creates a new file-backed snapshot repository
func NewSnapshotRepo(path string) *SnapshotRepo {
	return &SnapshotRepo{path: path}
}

type document struct {
	Version      int                         `json:"version"`
	AutoResolve  bool                        `json:"auto_resolve"`
	Banner       string                      `json:"banner,omitempty"`
	Operators    domain.IDSet                `json:"operators"`
	Destinations map[int64]string            `json:"destinations"`
	HostNames    map[int64]string            `json:"host_names"`
	Giveaways    map[string]*domain.Giveaway `json:"giveaways"`
}

type legacyDocument struct {
	AutoChoose    *bool                     `json:"auto_choose"`
	Banner        *string                   `json:"banner"`
	ApprovedUsers []int64                   `json:"approved_users"`
	KnownGroups   map[int64]string          `json:"known_groups"`
	UserHostPrefs map[int64]string          `json:"user_host_prefs"`
	Giveaways     map[string]legacyGiveaway `json:"giveaways"`
}

type legacyGiveaway struct {
	ChatID        int64   `json:"chat_id"`
	MessageID     int     `json:"message_id"`
	Title         string  `json:"title"`
	Prize         string  `json:"prize"`
	Conditions    string  `json:"conditions"`
	CreatorID     int64   `json:"creator_id"`
	WinnersCount  int     `json:"winners_count"`
	MinEntries    int     `json:"min_entries"`
	EndsAt        string  `json:"ends_at"`
	Participants  []int64 `json:"participants"`
	Ended         bool    `json:"ended"`
	WaitingManual bool    `json:"waiting_manual"`
	Host          *string `json:"host"`
}

// Load reads the snapshot; a missing file yields an empty snapshot
func (r *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	return decode(data)
}

// Save writes the snapshot atomically: temp file, fsync, rename
func (r *SnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(snapshot)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func encode(snapshot *domain.Snapshot) ([]byte, error) {
	doc := document{
		Version:      currentVersion,
		AutoResolve:  snapshot.Settings.AutoResolve,
		Banner:       snapshot.Settings.Banner,
		Operators:    snapshot.Settings.Operators,
		Destinations: snapshot.Settings.Destinations,
		HostNames:    snapshot.Settings.HostNames,
		Giveaways:    snapshot.Giveaways,
	}
	if doc.Operators == nil {
		doc.Operators = domain.IDSet{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.Snapshot, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if probe.Version == 0 {
		return decodeLegacy(data)
	}
	if probe.Version > currentVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", probe.Version, currentVersion)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snapshot := &domain.Snapshot{
		Settings: domain.Settings{
			AutoResolve:  doc.AutoResolve,
			Banner:       doc.Banner,
			Operators:    doc.Operators,
			Destinations: doc.Destinations,
			HostNames:    doc.HostNames,
		},
		Giveaways: doc.Giveaways,
	}
	snapshot.Normalize()
	return snapshot, nil
}

func decodeLegacy(data []byte) (*domain.Snapshot, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode legacy snapshot: %w", err)
	}

	snapshot := domain.NewSnapshot()
	if doc.AutoChoose != nil {
		snapshot.Settings.AutoResolve = *doc.AutoChoose
	}
	if doc.Banner != nil {
		snapshot.Settings.Banner = *doc.Banner
	}
	snapshot.Settings.Operators = domain.NewIDSet(doc.ApprovedUsers...)
	if doc.KnownGroups != nil {
		snapshot.Settings.Destinations = doc.KnownGroups
	}
	if doc.UserHostPrefs != nil {
		snapshot.Settings.HostNames = doc.UserHostPrefs
	}

	for id, lg := range doc.Giveaways {
		endsAt, err := parseLegacyTime(lg.EndsAt)
		if err != nil {
			return nil, fmt.Errorf("giveaway %s: %w", id, err)
		}

		status := domain.StatusOpen
		switch {
		case lg.Ended && lg.WaitingManual:
			status = domain.StatusAwaitingManual
		case lg.Ended:
			status = domain.StatusResolved
		}

		host := ""
		if lg.Host != nil {
			host = *lg.Host
		}
		conditions := lg.Conditions
		if conditions == "" {
			conditions = "None"
		}

		snapshot.Giveaways[id] = &domain.Giveaway{
			ID:           id,
			ChatID:       lg.ChatID,
			MessageID:    lg.MessageID,
			Title:        lg.Title,
			Prize:        lg.Prize,
			Conditions:   conditions,
			CreatorID:    lg.CreatorID,
			WinnersCount: lg.WinnersCount,
			MinEntries:   lg.MinEntries,
			EndsAt:       endsAt,
			Participants: domain.NewIDSet(lg.Participants...),
			Status:       status,
			Host:         host,
		}
	}

	snapshot.Normalize()
	return snapshot, nil
}

// legacy timestamps are naive UTC in Python isoformat
var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseLegacyTime(value string) (time.Time, error) {
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ends_at %q", value)
}
