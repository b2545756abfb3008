package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/setaside/internal/config"
	"github.com/iwvelando/setaside/pkg/constants"
	"go.uber.org/zap"
)

func TestBuildDefaults(t *testing.T) {
	conf, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	comps, err := build(context.Background(), zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer comps.close(zap.NewNop())

	if comps.service == nil {
		t.Fatal("expected a service")
	}
	if comps.documents != nil {
		t.Error("expected documents to be disabled without a bucket")
	}
}

func TestBuildSQLite(t *testing.T) {
	conf, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	conf.Database.Driver = constants.DriverSQLite
	conf.Database.DSN = filepath.Join(t.TempDir(), "setaside.db")

	comps, err := build(context.Background(), zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	comps.close(zap.NewNop())
}

func TestBuildBadDriver(t *testing.T) {
	conf := &config.Configuration{Database: config.DatabaseConfig{Driver: "oracle"}}
	if _, err := build(context.Background(), zap.NewNop(), conf); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadConfigurationMissingDefaultFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	conf, err := loadConfiguration(constants.DefaultConfigFile)
	if err != nil {
		t.Fatalf("loadConfiguration() error = %v", err)
	}
	if conf.Database.Driver != constants.DriverMemory {
		t.Errorf("expected memory driver, got %s", conf.Database.Driver)
	}
}
