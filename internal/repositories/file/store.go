package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jobwatch-go/internal/model"
	"jobwatch-go/internal/repositories"
)

const (
	DefaultPrefix = "job_listings_"
	fileExt       = ".txt"
	maxTagProbes  = 60
)

// Store keeps one newline-separated text file per snapshot inside dir.
type Store struct {
	dir    string
	prefix string
	now    func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(dir, prefix string, options ...Option) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Store{dir: dir, prefix: prefix, now: time.Now}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Store) Latest(ctx context.Context) (*model.Snapshot, error) {
	tags, err := s.tags()
	if err != nil {
		return nil, repositories.Wrap("latest", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	snap, err := s.read(tags[len(tags)-1])
	if err != nil {
		return nil, repositories.Wrap("latest", err)
	}
	return &snap, nil
}

func (s *Store) List(ctx context.Context) ([]model.Snapshot, error) {
	tags, err := s.tags()
	if err != nil {
		return nil, repositories.Wrap("list", err)
	}
	snapshots := make([]model.Snapshot, 0, len(tags))
	for _, tag := range tags {
		snap, err := s.read(tag)
		if err != nil {
			return nil, repositories.Wrap("list", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (s *Store) Write(ctx context.Context, listings model.ListingSet) (model.Snapshot, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", fmt.Errorf("mkdir %s: %w", s.dir, err))
	}

	createdAt, err := s.nextFreeTime()
	if err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}
	tag := model.TagFor(createdAt)
	target := s.path(tag)

	var b strings.Builder
	for _, line := range listings.Strings() {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := writeAtomic(target, []byte(b.String())); err != nil {
		return model.Snapshot{}, repositories.Wrap("write", err)
	}

	return model.Snapshot{Tag: tag, CreatedAt: createdAt, Listings: listings}, nil
}

func (s *Store) nextFreeTime() (time.Time, error) {
	tags, err := s.tags()
	if err != nil {
		return time.Time{}, err
	}
	last := ""
	if len(tags) > 0 {
		last = tags[len(tags)-1]
	}
	candidate := repositories.NextCreatedAt(s.now(), last)
	for i := 0; i < maxTagProbes; i++ {
		if _, err := os.Stat(s.path(model.TagFor(candidate))); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Second)
	}
	return time.Time{}, fmt.Errorf("no free snapshot tag after %d probes", maxTagProbes)
}

func (s *Store) tags() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.dir, err)
	}

	tags := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, s.prefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		tag := strings.TrimSuffix(strings.TrimPrefix(name, s.prefix), fileExt)
		if _, err := model.ParseTag(tag); err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *Store) read(tag string) (model.Snapshot, error) {
	content, err := os.ReadFile(s.path(tag))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot %s: %w", tag, err)
	}
	createdAt, _ := model.ParseTag(tag)
	return model.Snapshot{
		Tag:       tag,
		CreatedAt: createdAt,
		Listings:  model.NewListingSet(strings.Split(string(content), "\n")),
	}, nil
}

func (s *Store) path(tag string) string {
	return filepath.Join(s.dir, s.prefix+tag+fileExt)
}

func writeAtomic(target string, content []byte) error {
	tmp := target + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
