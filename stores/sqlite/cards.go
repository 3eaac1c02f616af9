package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"time"

	"socialcard-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type cardStore struct {
	db *sql.DB
}

func NewCardStore(dataSourceName string) core.CardStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}

	// Create cards table
	sts := `CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		headline TEXT NOT NULL,
		tagline TEXT,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(sts); err != nil {
		stdlog.Fatal(err)
	}

	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS cards_created_at ON cards (created_at DESC);`); err != nil {
		stdlog.Fatal(err)
	}

	return &cardStore{db}
}

// List returns all cards, newest first. Cards created in the same
// millisecond are ordered by their ULID, which is monotonic.
func (s *cardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, url, headline, tagline, created_at FROM cards ORDER BY created_at DESC, id DESC")
	if err != nil {
		logrus.WithField("error", err).Error("Failed to list cards")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close card rows")
		}
	}()

	cards := []*core.SavedCard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to scan card")
			continue
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logrus.WithField("count", len(cards)).Debug("Cards listed successfully")
	return cards, nil
}

func (s *cardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	saved := *card
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	log := logrus.WithFields(logrus.Fields{
		"card_id":  saved.ID,
		"headline": saved.Headline,
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cards (id, url, headline, tagline, created_at) VALUES (?, ?, ?, ?, ?)",
		saved.ID, saved.URL, saved.Headline, saved.Tagline, saved.CreatedAt.UnixMilli())
	if err != nil {
		log.WithField("error", err).Error("Failed to create card")
		return nil, err
	}

	log.Info("Card created successfully")
	return &saved, nil
}

func (s *cardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	log := logrus.WithField("card_id", id)
	log.Debug("Retrieving card by ID")

	row := s.db.QueryRowContext(ctx,
		"SELECT id, url, headline, tagline, created_at FROM cards WHERE id = ?", id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.WithField("error", "card not found").Warn("Card with specified ID not found")
			return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
		}
		log.WithField("error", err).Error("Failed to retrieve card")
		return nil, err
	}

	log.Info("Card retrieved successfully")
	return card, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*core.SavedCard, error) {
	var (
		card      core.SavedCard
		tagline   sql.NullString
		createdAt int64
	)
	if err := row.Scan(&card.ID, &card.URL, &card.Headline, &tagline, &createdAt); err != nil {
		return nil, err
	}
	card.Tagline = tagline.String
	card.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &card, nil
}
