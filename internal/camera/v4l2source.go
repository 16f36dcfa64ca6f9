package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os/exec"
	"sync"
	"time"
)

// プレビューストリームのフレームレート
const previewFPS = 15

// V4L2Source はffmpeg経由でV4L2デバイスからフレームを取得するFrameSource実装
type V4L2Source struct {
	devicePath string
	width      int
	height     int

	status Status
	mu     sync.RWMutex

	// 制御用
	stopCh chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// ストリーミング用チャンネル
	frameChan         chan []byte
	internalFrameChan chan []byte

	// 最新フレーム保持用（キャプチャ用）
	latestFrame []byte
	latestMutex sync.RWMutex
}

// NewV4L2Source は新しいV4L2Sourceを作成する
func NewV4L2Source(devicePath string, width, height int) *V4L2Source {
	return &V4L2Source{
		devicePath:        devicePath,
		width:             width,
		height:            height,
		status:            StatusInactive,
		stopCh:            make(chan struct{}),
		frameChan:         make(chan []byte, 10),
		internalFrameChan: make(chan []byte, 10),
	}
}

// Open はカメラを開き、ストリーミングを開始する
func (s *V4L2Source) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusActive {
		return nil // 既に開始済み
	}

	// テストキャプチャでデバイスを確認
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.captureOnce(testCtx); err != nil {
		s.status = StatusError
		return fmt.Errorf("カメラのテストキャプチャに失敗: %w", err)
	}

	// ストリーミングを開始
	streamCtx, streamCancel := context.WithCancel(context.Background())
	s.cancel = streamCancel
	go s.streamFrames(streamCtx)

	// フレーム転送ゴルーチンを開始
	s.wg.Add(1)
	go s.forwardFrames()

	s.status = StatusActive
	return nil
}

// Close はカメラを閉じる
func (s *V4L2Source) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusInactive {
		return nil // 既に停止済み
	}

	// ストリーミングを停止
	if s.cancel != nil {
		s.cancel()
	}
	close(s.stopCh)
	s.wg.Wait()

	// 新しいstopChを作成（再開可能にするため）
	s.stopCh = make(chan struct{})

	s.status = StatusInactive
	return nil
}

// GetStatus は現在の状態を取得する
func (s *V4L2Source) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsAvailable はデバイスが利用可能かチェックする
func (s *V4L2Source) IsAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", s.devicePath, "--info")
	return cmd.Run() == nil
}

// FrameChannel はライブプレビュー用のJPEGフレームチャンネルを返す
func (s *V4L2Source) FrameChannel() <-chan []byte {
	return s.frameChan
}

// CurrentFrame は現在の生フレームを取得する
// ストリーミング中の最新フレームを優先し、なければ単発キャプチャする
func (s *V4L2Source) CurrentFrame(ctx context.Context) (RawFrame, error) {
	s.latestMutex.RLock()
	latest := s.latestFrame
	s.latestMutex.RUnlock()

	var data []byte
	if latest != nil {
		data = latest
	} else {
		captured, err := s.captureOnce(ctx)
		if err != nil {
			return RawFrame{}, fmt.Errorf("フレームキャプチャに失敗: %w", err)
		}
		data = captured
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return RawFrame{}, fmt.Errorf("JPEG画像のデコードに失敗: %w", err)
	}

	bounds := img.Bounds()
	return RawFrame{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// captureOnce はffmpegで1フレームをJPEGとしてキャプチャする
func (s *V4L2Source) captureOnce(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", s.width, s.height),
		"-i", s.devicePath,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2", // 高品質JPEG
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("JPEGフレームキャプチャに失敗: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// streamFrames はffmpegで連続的にフレームをキャプチャし内部チャンネルへ流す
func (s *V4L2Source) streamFrames(ctx context.Context) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", s.width, s.height),
		"-r", fmt.Sprintf("%d", previewFPS),
		"-i", s.devicePath,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return
	}

	if err := cmd.Start(); err != nil {
		return
	}

	defer func() {
		_ = cmd.Wait() // コンテキストキャンセル時のエラーは無視
	}()

	buffer := make([]byte, 1024*1024) // 1MBバッファ
	frameBuffer := bytes.Buffer{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := stdout.Read(buffer)
			if err != nil {
				return
			}

			frameBuffer.Write(buffer[:n])

			// JPEGマーカーを探してフレームを分割
			data := frameBuffer.Bytes()
			for {
				// JPEGの開始マーカー（FF D8）を探す
				startIdx := bytes.Index(data, []byte{0xFF, 0xD8})
				if startIdx == -1 {
					break
				}

				// JPEGの終了マーカー（FF D9）を探す
				endIdx := bytes.Index(data[startIdx+2:], []byte{0xFF, 0xD9})
				if endIdx == -1 {
					// 完全なフレームがまだない
					if startIdx > 0 {
						frameBuffer.Reset()
						frameBuffer.Write(data[startIdx:])
					}
					break
				}

				// 完全なJPEGフレームを抽出
				endIdx += startIdx + 2 + 2 // マーカーのサイズを含める
				frame := make([]byte, endIdx)
				copy(frame, data[:endIdx])

				// フレームを送信
				select {
				case s.internalFrameChan <- frame:
				case <-ctx.Done():
					return
				}

				// 処理済みデータを削除
				remaining := data[endIdx:]
				frameBuffer.Reset()
				if len(remaining) > 0 {
					frameBuffer.Write(remaining)
					data = frameBuffer.Bytes()
				} else {
					break
				}
			}
		}
	}
}

// forwardFrames は内部チャンネルのフレームを保持しつつ転送する
func (s *V4L2Source) forwardFrames() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return

		case frame, ok := <-s.internalFrameChan:
			if !ok {
				return
			}

			// 最新フレームを保存（キャプチャ用）
			s.latestMutex.Lock()
			s.latestFrame = make([]byte, len(frame))
			copy(s.latestFrame, frame)
			s.latestMutex.Unlock()

			// フレームを転送
			select {
			case s.frameChan <- frame:
			case <-s.stopCh:
				return
			default:
				// チャンネルがフルの場合は古いフレームを破棄
				select {
				case <-s.frameChan:
				default:
				}
				select {
				case s.frameChan <- frame:
				case <-s.stopCh:
					return
				}
			}
		}
	}
}
