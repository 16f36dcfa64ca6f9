package server

import (
	"context"
	"errors"
	"log"

	"cheki/internal/camera"
	"cheki/internal/config"
	"cheki/internal/export"
	"cheki/internal/printer"
	"cheki/internal/surface"
)

// Bootstrap は設定から全コンポーネントを組み立ててServerを作成する
// カメラが開けない場合は致命的エラーにせず、キャプチャ無効の縮退状態で起動する
func Bootstrap(ctx context.Context, cfg *config.Config) *Server {
	var source camera.FrameSource

	discovery := camera.NewLinuxDiscovery()
	opened, err := camera.OpenFrontCamera(ctx, discovery, cfg.Camera.Device,
		cfg.Camera.PreferredWidth, cfg.Camera.PreferredHeight)
	switch {
	case err == nil:
		source = opened
	case errors.Is(err, camera.ErrPermissionDenied):
		log.Printf("カメラへのアクセスがありません。キャプチャ無効で起動します: %v", err)
	default:
		log.Printf("カメラの初期化に失敗しました。キャプチャ無効で起動します: %v", err)
	}

	store := surface.NewStore()
	engine := surface.NewEngine(store)

	p := printer.New(source, store)
	p.SetDurations(cfg.Print.EjectDuration, cfg.Print.FlashDuration)

	encoder := export.NewEncoder(cfg.Export.Width, cfg.Export.Height, cfg.Export.Quality)

	return New(cfg, p, store, engine, encoder)
}
