package main

import (
	"context"
	"log"
	"os"

	"cheki/internal/config"
	"cheki/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを作成（カメラが開けない場合は縮退状態で起動）
	srv := server.Bootstrap(ctx, cfg)

	// サーバーを起動
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
		os.Exit(1)
	}
}
