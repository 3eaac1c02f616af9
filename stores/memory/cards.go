package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialcard-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type cardStore struct {
	mu    sync.RWMutex
	cards []core.SavedCard
	index map[string]int
}

func NewCardStore() core.CardStore {
	return &cardStore{
		index: make(map[string]int),
	}
}

// List returns copies of the stored cards, newest first.
func (s *cardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make([]*core.SavedCard, 0, len(s.cards))
	for i := len(s.cards) - 1; i >= 0; i-- {
		card := s.cards[i]
		cards = append(cards, &card)
	}

	logrus.WithField("count", len(cards)).Debug("Cards listed successfully")
	return cards, nil
}

func (s *cardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	saved := *card
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.index[saved.ID] = len(s.cards)
	s.cards = append(s.cards, saved)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"card_id":  saved.ID,
		"headline": saved.Headline,
	}).Info("Card created successfully")

	return &saved, nil
}

func (s *cardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	log := logrus.WithField("card_id", id)

	s.mu.RLock()
	i, ok := s.index[id]
	var card core.SavedCard
	if ok {
		card = s.cards[i]
	}
	s.mu.RUnlock()

	if ok {
		log.Info("Card retrieved successfully")
		return &card, nil
	}

	log.WithField("error", "card not found").Warn("Card with specified ID not found")
	return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
}
