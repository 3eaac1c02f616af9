package postgres

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"time"

	"socialcard-server/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const schema = `CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	headline TEXT NOT NULL,
	tagline TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS cards_created_at ON cards (created_at DESC);`

type cardStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and makes sure the cards table exists.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, nil
}

func NewCardStore(dsn string) core.CardStore {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, dsn)
	if err != nil {
		stdlog.Fatal(err)
	}
	return &cardStore{pool: pool}
}

func (s *cardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, url, headline, tagline, created_at FROM cards ORDER BY created_at DESC, id DESC")
	if err != nil {
		logrus.WithField("error", err).Error("Failed to list cards")
		return nil, err
	}
	defer rows.Close()

	cards := []*core.SavedCard{}
	for rows.Next() {
		var card core.SavedCard
		if err := rows.Scan(&card.ID, &card.URL, &card.Headline, &card.Tagline, &card.CreatedAt); err != nil {
			logrus.WithField("error", err).Error("Failed to scan card")
			return nil, err
		}
		cards = append(cards, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *cardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	saved := *card
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	log := logrus.WithFields(logrus.Fields{
		"card_id":  saved.ID,
		"headline": saved.Headline,
	})

	_, err := s.pool.Exec(ctx,
		"INSERT INTO cards (id, url, headline, tagline, created_at) VALUES ($1, $2, $3, $4, $5)",
		saved.ID, saved.URL, saved.Headline, saved.Tagline, saved.CreatedAt)
	if err != nil {
		log.WithField("error", err).Error("Failed to create card")
		return nil, err
	}

	log.Info("Card created successfully")
	return &saved, nil
}

func (s *cardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	log := logrus.WithField("card_id", id)

	var card core.SavedCard
	err := s.pool.QueryRow(ctx,
		"SELECT id, url, headline, tagline, created_at FROM cards WHERE id = $1", id).
		Scan(&card.ID, &card.URL, &card.Headline, &card.Tagline, &card.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.WithField("error", "card not found").Warn("Card with specified ID not found")
			return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
		}
		log.WithField("error", err).Error("Failed to retrieve card")
		return nil, err
	}

	log.Info("Card retrieved successfully")
	return &card, nil
}
