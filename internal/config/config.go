package config

import (
	"fmt"
	"os"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Camera CameraConfig `yaml:"camera"`
	Print  PrintConfig  `yaml:"print"`
	Export ExportConfig `yaml:"export"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	Device string `yaml:"device"` // デバイスパス (例: /dev/video0)。空なら自動検出

	PreferredWidth  int `yaml:"preferred_width"`  // 要求する画像幅
	PreferredHeight int `yaml:"preferred_height"` // 要求する画像高さ
}

// PrintConfig はプリント演出の設定
type PrintConfig struct {
	EjectDuration time.Duration `yaml:"eject_duration"` // 排出アニメーションの長さ
	FlashDuration time.Duration `yaml:"flash_duration"` // フラッシュ発光の長さ
}

// ExportConfig はエクスポート出力の設定
type ExportConfig struct {
	Width   int `yaml:"width"`   // キャンバス幅
	Height  int `yaml:"height"`  // キャンバス高さ
	Quality int `yaml:"quality"` // JPEG品質
}

// Load は設定を読み込む
// 環境変数があればデフォルト値を上書きする
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			Device:          getEnvOrDefault("CAMERA_DEVICE", ""),
			PreferredWidth:  getEnvAsIntOrDefault("CAMERA_WIDTH", 1280),
			PreferredHeight: getEnvAsIntOrDefault("CAMERA_HEIGHT", 720),
		},
		Print: PrintConfig{
			EjectDuration: 1500 * time.Millisecond,
			FlashDuration: 150 * time.Millisecond,
		},
		Export: ExportConfig{
			Width:   getEnvAsIntOrDefault("EXPORT_WIDTH", 600),
			Height:  getEnvAsIntOrDefault("EXPORT_HEIGHT", 725),
			Quality: getEnvAsIntOrDefault("EXPORT_QUALITY", 92),
		},
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Camera.PreferredWidth <= 0 || c.Camera.PreferredHeight <= 0 {
		return fmt.Errorf("無効なカメラ解像度: %dx%d", c.Camera.PreferredWidth, c.Camera.PreferredHeight)
	}

	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("無効なエクスポートサイズ: %dx%d", c.Export.Width, c.Export.Height)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("無効なJPEG品質: %d", c.Export.Quality)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
