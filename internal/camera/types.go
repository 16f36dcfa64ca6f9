package camera

import (
	"context"
	"errors"
	"image"
)

// Status はカメラの動作状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // カメラは停止中
	StatusActive   Status = "active"   // カメラは動作中
	StatusError    Status = "error"    // カメラでエラーが発生
)

// フレーム取得のエラー
var (
	// ErrPermissionDenied はカメラデバイスが開けないことを示す
	// 致命的エラーではなく、キャプチャ無効の縮退状態として扱う
	ErrPermissionDenied = errors.New("カメラへのアクセスが許可されていません")
	// ErrFrameUnavailable はフレームがまだ取得できていないことを示す
	ErrFrameUnavailable = errors.New("フレームがまだ取得されていません")
)

// RawFrame はカメラから取得した生フレームを表す
type RawFrame struct {
	Image  image.Image // デコード済み画像
	Width  int         // 画像幅
	Height int         // 画像高さ
}

// FrameSource は単一カメラの不透明なハンドルを表すインターフェース
type FrameSource interface {
	// Open はカメラを開き、ストリーミングを開始する
	Open(ctx context.Context) error

	// CurrentFrame は現在の生フレームを取得する
	CurrentFrame(ctx context.Context) (RawFrame, error)

	// FrameChannel はライブプレビュー用のJPEGフレームチャンネルを返す
	FrameChannel() <-chan []byte

	// Close はカメラを閉じる
	Close(ctx context.Context) error

	// IsAvailable はカメラが利用可能かチェックする
	IsAvailable(ctx context.Context) bool

	// GetStatus は現在の状態を取得する
	GetStatus() Status
}

// Discovery はカメラデバイスの検出機能を提供する
type Discovery interface {
	// ScanDevices はシステム内の利用可能なカメラデバイスをスキャンする
	ScanDevices(ctx context.Context) ([]string, error)

	// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
	IsDeviceAvailable(ctx context.Context, device string) bool

	// GetDeviceName はデバイスの表示名を取得する
	GetDeviceName(ctx context.Context, device string) string
}

// OpenFrontCamera はフロントカメラを検出して開く
// device が空の場合は Discovery で最初の利用可能なデバイスを選択する
// ハンドルが得られない場合は ErrPermissionDenied を返す
func OpenFrontCamera(ctx context.Context, discovery Discovery, device string, preferredWidth, preferredHeight int) (FrameSource, error) {
	if device == "" {
		devices, err := discovery.ScanDevices(ctx)
		if err != nil || len(devices) == 0 {
			return nil, ErrPermissionDenied
		}
		device = devices[0]
	}

	if !discovery.IsDeviceAvailable(ctx, device) {
		return nil, ErrPermissionDenied
	}

	source := NewV4L2Source(device, preferredWidth, preferredHeight)
	if err := source.Open(ctx); err != nil {
		return nil, ErrPermissionDenied
	}

	return source, nil
}
