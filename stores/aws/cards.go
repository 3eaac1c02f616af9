package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"socialcard-server/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "cards/"

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// cardStore keeps one JSON object per card under cards/<ulid>.json. ULIDs sort
// by creation time, so listing keys in reverse gives newest first.
type cardStore struct {
	s3Client s3API
	bucket   string
}

// NewCardStore creates a new S3-based store using the default credential chain.
func NewCardStore(bucketName string) core.CardStore {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &cardStore{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func cardKey(id string) (string, error) {
	if id == "" || path.Base(id) != id || id == "." || id == ".." {
		return "", fmt.Errorf("invalid card id %q", id)
	}
	return keyPrefix + id + ".json", nil
}

func (s *cardStore) List(ctx context.Context) ([]*core.SavedCard, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list cards: %w", err)
		}
		for _, object := range page.Contents {
			if object.Key != nil && strings.HasSuffix(*object.Key, ".json") {
				keys = append(keys, *object.Key)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	cards := make([]*core.SavedCard, 0, len(keys))
	for _, key := range keys {
		card, err := s.get(ctx, key)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Skipping unreadable card object")
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (s *cardStore) get(ctx context.Context, key string) (*core.SavedCard, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read card data: %w", err)
	}

	var card core.SavedCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card: %w", err)
	}
	return &card, nil
}

func (s *cardStore) Create(ctx context.Context, card *core.SavedCard) (*core.SavedCard, error) {
	saved := *card
	saved.ID = ulid.Make().String()
	saved.CreatedAt = time.Now().UTC()

	key, err := cardKey(saved.ID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	logrus.WithField("card_id", saved.ID).Info("Card created successfully")
	return &saved, nil
}

func (s *cardStore) FindID(ctx context.Context, id string) (*core.SavedCard, error) {
	key, err := cardKey(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
	}

	card, err := s.get(ctx, key)
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}
