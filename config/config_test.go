package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 3000},
		Database: DatabaseConfig{Driver: DriverMemory},
		Auth:     AuthConfig{JWTSecret: "test-secret-key-for-unit-testing"},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("期望校验通过，实际: %v", err)
	}
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("期望 jwt_secret 过短时报错")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Error("期望未知 driver 时报错")
	}
}

func TestValidate_MongoWithoutURI(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverMongo
	if err := cfg.Validate(); err == nil {
		t.Error("期望 mongo 缺少 uri 时报错")
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	// 切换到空目录，避免读到仓库中的 config.yaml / .env
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	t.Setenv("HOMEWORK_AUTH_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("HOMEWORK_SERVER_PORT", "8088")
	t.Setenv("MONGO_URI", "mongodb://legacy:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("期望 port=8088，实际=%d", cfg.Server.Port)
	}
	if cfg.Database.Mongo.URI != "mongodb://legacy:27017" {
		t.Errorf("期望读取 MONGO_URI，实际=%s", cfg.Database.Mongo.URI)
	}
	if cfg.Database.Driver != DriverMongo {
		t.Errorf("期望默认 driver=mongo，实际=%s", cfg.Database.Driver)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("期望 access_token_ttl=15m，实际=%s", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9000\ndb:\n  driver: memory\nauth:\n  jwt_secret: file-secret-0123456789\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Database.Driver != DriverMemory {
		t.Errorf("配置文件未生效: port=%d driver=%s", cfg.Server.Port, cfg.Database.Driver)
	}
}
