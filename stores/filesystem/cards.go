package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"socialcard-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const fileName = "cards.json"

// cardStore keeps every card in one JSON array, newest first.
type cardStore struct {
	mu   sync.Mutex
	path string
}

func NewCardStore(basePath string) core.CardStore {
	if basePath == "" {
		basePath = "."
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		stdlog.Fatal(err)
	}
	return &cardStore{path: filepath.Join(basePath, fileName)}
}

// load reads the card file. A missing file is an empty store.
func (s *cardStore) load() ([]core.SavedCard, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.SavedCard{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []core.SavedCard{}, nil
	}

	var cards []core.SavedCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return cards, nil
}

func (s *cardStore) save(cards []core.SavedCard) error {
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *cardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	s.mu.Lock()
	cards, err := s.load()
	s.mu.Unlock()
	if err != nil {
		logrus.WithField("error", err).Error("Failed to read cards")
		return nil, err
	}

	out := make([]*core.SavedCard, len(cards))
	for i := range cards {
		out[i] = &cards[i]
	}
	return out, nil
}

func (s *cardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	saved := *card
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now().UTC()

	log := logrus.WithFields(logrus.Fields{
		"card_id": saved.ID,
		"path":    s.path,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.load()
	if err != nil {
		log.WithField("error", err).Error("Failed to read cards")
		return nil, err
	}
	cards = append([]core.SavedCard{saved}, cards...)
	if err := s.save(cards); err != nil {
		log.WithField("error", err).Error("Failed to write cards")
		return nil, err
	}

	log.Info("Card created successfully")
	return &saved, nil
}

func (s *cardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	log := logrus.WithField("card_id", id)

	s.mu.Lock()
	cards, err := s.load()
	s.mu.Unlock()
	if err != nil {
		log.WithField("error", err).Error("Failed to read cards")
		return nil, err
	}

	for i := range cards {
		if cards[i].ID == id {
			log.Info("Card retrieved successfully")
			return &cards[i], nil
		}
	}

	log.WithField("error", "card not found").Warn("Card with specified ID not found")
	return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
}
