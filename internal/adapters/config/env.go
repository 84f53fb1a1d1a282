package config

import (
	"bytes"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.trai.ch/keel/internal/core/domain"
)

// Environment variables read by the loader. The process environment wins
// over the project's .env file.
const (
	EnvRemoteURL   = "KEEL_REMOTE_URL"
	EnvRemoteToken = "KEEL_REMOTE_TOKEN"
	EnvS3AccessKey = "KEEL_S3_ACCESS_KEY"
	EnvS3SecretKey = "KEEL_S3_SECRET_KEY"
	EnvS3Region    = "KEEL_S3_REGION"
)

func (l *Loader) applyEnv(root string, remote *domain.RemoteOptions) error {
	dotenv := map[string]string{}
	path := filepath.Join(root, domain.EnvFileName)
	data, err := l.FS.ReadFile(path)
	switch {
	case notExist(err):
	case err != nil:
		return domain.WrapError(err, domain.ErrConfigReadFailed, "file", path)
	default:
		if dotenv, err = godotenv.Parse(bytes.NewReader(data)); err != nil {
			return domain.WrapError(err, domain.ErrConfigParseFailed, "file", path)
		}
	}

	lookup := func(key string) string {
		if l.Getenv != nil {
			if v := l.Getenv(key); v != "" {
				return v
			}
		}
		return dotenv[key]
	}

	if v := lookup(EnvRemoteURL); v != "" {
		if remote.URL == "" {
			remote.Push = true
		}
		remote.URL = v
	}
	if v := lookup(EnvRemoteToken); v != "" {
		remote.Token = v
	}
	if v := lookup(EnvS3AccessKey); v != "" {
		remote.AccessKey = v
	}
	if v := lookup(EnvS3SecretKey); v != "" {
		remote.SecretKey = v
	}
	if v := lookup(EnvS3Region); v != "" {
		remote.Region = v
	}
	return nil
}
