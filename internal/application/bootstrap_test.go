package application

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/rankview/internal/config"
	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/dbfiles"
	"github.com/JonMunkholm/rankview/internal/logging"
)

func baseConfig(driver string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Driver: driver, Root: "db"},
		Load:   config.LoadConfig{MaxConcurrent: 1, MaxWaitTime: time.Second, Timeout: time.Second},
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	files, err := Resolver(ctx, baseConfig("sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := files.(*dbfiles.Local); !ok {
		t.Errorf("Resolver without bucket = %T, want *dbfiles.Local", files)
	}

	cfg := baseConfig("sqlite")
	cfg.S3 = config.S3Config{
		Bucket:          "josaa",
		Region:          "ap-south-1",
		CacheDir:        t.TempDir(),
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
	}
	files, err = Resolver(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := files.(*dbfiles.S3); !ok {
		t.Errorf("Resolver with bucket = %T, want *dbfiles.S3", files)
	}
}

func TestNewService_Memory(t *testing.T) {
	svc, err := NewService(context.Background(), baseConfig("memory"), nil, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if st := svc.LimiterStatus(); st.MaxConcurrent != 1 {
		t.Errorf("limiter = %+v", st)
	}
	_, err = svc.Load(context.Background(), core.Selection{Year: 2024, Round: 1})
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("Load from an empty memory source = %v", err)
	}
}

func TestNewService_UnknownDriver(t *testing.T) {
	_, err := NewService(context.Background(), baseConfig("mysql"), nil, logging.Discard())
	if !errors.Is(err, core.ErrUnknownDriver) {
		t.Errorf("NewService = %v, want ErrUnknownDriver", err)
	}
}

func TestLoadInitial(t *testing.T) {
	cfg := baseConfig("sqlite")
	cfg.Source.Root = filepath.Join(t.TempDir(), "missing")
	svc, err := NewService(context.Background(), cfg, nil, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if err := LoadInitial(context.Background(), cfg, svc); err != nil {
		t.Errorf("LoadInitial without a selection = %v", err)
	}

	cfg.Load.Initial = "2024/9"
	if err := LoadInitial(context.Background(), cfg, svc); !errors.Is(err, core.ErrInvalidSelection) {
		t.Errorf("LoadInitial(2024/9) = %v", err)
	}

	cfg.Load.Initial = "2024/1"
	if err := LoadInitial(context.Background(), cfg, svc); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("LoadInitial with no file = %v", err)
	}
}
