package stores

import (
	"socialcard-server/config"
	"socialcard-server/core"
	"socialcard-server/stores/aws"
	"socialcard-server/stores/filesystem"
	"socialcard-server/stores/memory"
	"socialcard-server/stores/postgres"
	"socialcard-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

func GetStore(cfg config.StorageConfig) core.CardStore {
	var store core.CardStore

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalPath
		store = filesystem.NewCardStore(cfg.LocalPath)
	case "sqlite":
		if !sqlite.CGOEnabled {
			logrus.WithField("basePath", cfg.LocalPath).Warn("sqlite storage needs cgo, falling back to filesystem")
			storageField["storageType"] = "filesystem"
			storageField["basePath"] = cfg.LocalPath
			store = filesystem.NewCardStore(cfg.LocalPath)
			break
		}
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewCardStore(cfg.DataSourceName)
	case "postgres":
		store = postgres.NewCardStore(cfg.PostgresDSN)
	case "s3":
		storageField["bucketName"] = cfg.S3Bucket
		store = aws.NewCardStore(cfg.S3Bucket)
	default:
		store = memory.NewCardStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
