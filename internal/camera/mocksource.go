package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
)

// MockFrameSource はテスト用のモックFrameSource実装
type MockFrameSource struct {
	status    Status
	frame     image.Image
	frameChan chan []byte
	mu        sync.RWMutex

	// テスト制御用
	shouldFailOpen  bool
	shouldFailFrame bool
}

// NewMockFrameSource は新しいMockFrameSourceを作成する
// デフォルトでは灰色の単色フレームを返す
func NewMockFrameSource(width, height int) *MockFrameSource {
	frame := image.NewNRGBA(image.Rect(0, 0, width, height))
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			frame.SetNRGBA(x, y, gray)
		}
	}

	return &MockFrameSource{
		status:    StatusInactive,
		frame:     frame,
		frameChan: make(chan []byte, 10),
	}
}

// Open はモックカメラを開く
func (m *MockFrameSource) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailOpen {
		m.status = StatusError
		return ErrPermissionDenied
	}

	m.status = StatusActive
	return nil
}

// Close はモックカメラを閉じる
func (m *MockFrameSource) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusInactive
	return nil
}

// CurrentFrame は設定済みのフレームを返す
func (m *MockFrameSource) CurrentFrame(_ context.Context) (RawFrame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFailFrame || m.frame == nil {
		return RawFrame{}, ErrFrameUnavailable
	}

	bounds := m.frame.Bounds()
	return RawFrame{
		Image:  m.frame,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// FrameChannel はモックのフレームチャンネルを返す
func (m *MockFrameSource) FrameChannel() <-chan []byte {
	return m.frameChan
}

// IsAvailable はモックカメラが利用可能かチェックする
func (m *MockFrameSource) IsAvailable(_ context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.shouldFailOpen
}

// GetStatus は現在の状態を取得する
func (m *MockFrameSource) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetFrame はテスト用にフレームを差し替える
func (m *MockFrameSource) SetFrame(frame image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = frame
}

// SetShouldFailOpen はテスト用にOpen失敗を設定する
func (m *MockFrameSource) SetShouldFailOpen(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOpen = shouldFail
}

// SetShouldFailFrame はテスト用にフレーム取得失敗を設定する
func (m *MockFrameSource) SetShouldFailFrame(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailFrame = shouldFail
}

// PushPreviewFrame はテスト用にプレビューフレームを投入する
func (m *MockFrameSource) PushPreviewFrame(data []byte) {
	m.frameChan <- data
}
