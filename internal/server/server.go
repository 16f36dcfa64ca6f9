package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cheki/internal/config"
	"cheki/internal/export"
	"cheki/internal/printer"
	"cheki/internal/surface"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *gin.Engine
	handler    *Handler
	routesOnce sync.Once
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, p *printer.Printer, store *surface.Store, engine *surface.Engine, encoder *export.Encoder) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	return &Server{
		config: cfg,
		router: router,
		handler: &Handler{
			config:  cfg,
			printer: p,
			store:   store,
			engine:  engine,
			encoder: encoder,
		},
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// setupRoutes はHTTPルートを設定する
// 二重登録を避けるため1回だけ実行される
func (s *Server) setupRoutes() {
	s.routesOnce.Do(s.registerRoutes)
}

func (s *Server) registerRoutes() {
	h := s.handler

	// ヘルスチェックエンドポイント
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/status", h.GetStatus)

		// フィルムプロファイルとフラッシュ
		api.GET("/profiles", h.GetProfiles)
		api.POST("/profile", h.SelectProfile)
		api.POST("/flash", h.SetFlash)

		// キャプチャとプリントスロット
		api.POST("/capture", h.Capture)
		api.GET("/slot", h.GetSlot)
		api.GET("/slot/image", h.GetSlotImage)
		api.POST("/pickup", h.Pickup)

		// キャンバス上のカード
		api.GET("/items", h.GetItems)
		api.DELETE("/items/:id", h.DeleteItem)
		api.GET("/items/:id/image", h.GetItemImage)
		api.GET("/items/:id/export", h.ExportItem)

		// ポインターイベント
		api.POST("/pointer", h.PointerEvent)

		// カメラ
		api.GET("/camera/status", h.GetCameraStatus)
		api.GET("/camera/stream", h.GetCameraStream)
		api.POST("/camera/open", h.SetCameraOpen)
	}
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// ルートを設定
	s.setupRoutes()

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
