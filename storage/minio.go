package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"MacanFM/config"
	"MacanFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
)

// streamURLExpiry is how long a presigned stream URL stays valid. The engine
// re-resolves per track load, so short is fine.
const streamURLExpiry = 15 * time.Minute

// InitMinio 初始化 MinIO 客户端
func InitMinio(cfg *config.Config) error {
	logger.Info("正在连接 MinIO 服务器...",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	return nil
}

// PresignStreamURL resolves a playable URL for an object key. This is the
// stream-URL resolution the playback engine calls per track load.
func PresignStreamURL(ctx context.Context, objectKey string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	reqParams := make(url.Values)
	presigned, err := minioClient.PresignedGetObject(ctx, bucketName, objectKey, streamURLExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to presign stream URL for %s: %w", objectKey, err)
	}
	return presigned.String(), nil
}

// DownloadToTemp fetches an object into a temp file and returns its path.
// The caller owns the file and removes it when the track is unloaded.
func DownloadToTemp(ctx context.Context, objectKey, tempDir string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	dir, err := os.MkdirTemp(tempDir, "macanfm-stream-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	localPath := filepath.Join(dir, filepath.Base(objectKey))
	if err := minioClient.FGetObject(ctx, bucketName, objectKey, localPath, minio.GetObjectOptions{}); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to download %s: %w", objectKey, err)
	}
	return localPath, nil
}

// UploadCoverArt stores extracted cover art and returns its object key.
func UploadCoverArt(ctx context.Context, trackPath string, data []byte, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	objectKey := fmt.Sprintf("covers/%s.img", filepath.Base(trackPath))
	_, err := minioClient.PutObject(ctx, bucketName, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover art: %w", err)
	}
	return objectKey, nil
}
