package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"cheki/internal/camera"
	"cheki/internal/film"
	"cheki/internal/surface"
)

// デフォルトのタイマー設定
const (
	// DefaultEjectDuration は排出アニメーションの長さ
	DefaultEjectDuration = 1500 * time.Millisecond
	// DefaultFlashDuration はフラッシュ発光パルスの長さ
	DefaultFlashDuration = 150 * time.Millisecond
)

// ピックアップ時のアンカーオフセット
// 掴んだ位置がカード上辺中央付近に来るよう、ポインターから左上へずらす
const (
	pickupOffsetX = 120.0
	pickupOffsetY = 50.0
)

// ピックアップ時に与える初期回転のゆらぎ（±5度）
const pickupRotationJitter = 5.0

// ErrCaptureUnavailable はキャプチャできない状態を示す
var ErrCaptureUnavailable = errors.New("現在キャプチャできません")

// Slot はプリントスロット（仕掛かり中の1枚）を表す
type Slot struct {
	Image     *film.FinishedImage // 現像済み画像
	ProfileID film.ProfileID      // 撮影時のプロファイル
	Flash     bool                // 撮影時のフラッシュ有無
	CreatedAt time.Time           // 撮影時刻
	Ejecting  bool                // 排出アニメーション中フラグ
}

// Printer はキャプチャの編成とプリントスロットを管理する
type Printer struct {
	source camera.FrameSource
	store  *surface.Store
	mu     sync.Mutex

	// 仕掛かり状態
	slot      *Slot
	capturing bool
	closed    bool // カメラUIが閉じられている状態

	// 撮影設定（キャプチャ時点で常にプロファイル1つとフラッシュフラグ1つ）
	profileID    film.ProfileID
	flashEnabled bool

	// タイマー制御
	ejectDuration time.Duration
	flashDuration time.Duration
	ejectTimer    *time.Timer
	flashTimer    *time.Timer
	flashActive   bool
}

// New は新しいPrinterを作成する
// source はnil可（カメラ権限なしの縮退状態）
func New(source camera.FrameSource, store *surface.Store) *Printer {
	return &Printer{
		source:        source,
		store:         store,
		profileID:     film.ProfileNormal,
		ejectDuration: DefaultEjectDuration,
		flashDuration: DefaultFlashDuration,
	}
}

// SetDurations はテスト用にタイマー長を変更する
func (p *Printer) SetDurations(eject, flash time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ejectDuration = eject
	p.flashDuration = flash
}

// CanCapture はキャプチャ可能かどうかを返す
// デバイスが開いていて、キャプチャ仕掛かり中でなく、カメラUIが閉じていないこと
func (p *Printer) CanCapture() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canCaptureLocked()
}

// canCaptureLocked はロック済み前提の判定
func (p *Printer) canCaptureLocked() bool {
	if p.closed || p.capturing {
		return false
	}
	return p.source != nil && p.source.GetStatus() == camera.StatusActive
}

// Capture は1フレームをキャプチャして現像し、プリントスロットへ書き込む
// CanCapture が偽の場合はスロットに触れずに拒否する
func (p *Printer) Capture(ctx context.Context) error {
	p.mu.Lock()
	if !p.canCaptureLocked() {
		p.mu.Unlock()
		return ErrCaptureUnavailable
	}
	p.capturing = true
	profileID := p.profileID
	flash := p.flashEnabled
	source := p.source
	p.mu.Unlock()

	// 失敗時はスロットに触れずに仕掛かり状態だけ戻す
	fail := func(err error) error {
		p.mu.Lock()
		p.capturing = false
		p.mu.Unlock()
		log.Printf("キャプチャに失敗しました: %v", err)
		return err
	}

	profile, err := film.ProfileByID(profileID)
	if err != nil {
		return fail(err)
	}

	frame, err := source.CurrentFrame(ctx)
	if err != nil {
		return fail(fmt.Errorf("フレーム取得に失敗: %w", err))
	}

	// 現像は単一の非分割処理として同期実行する
	finished, err := film.Stylize(frame.Image, profile, flash)
	if err != nil {
		return fail(fmt.Errorf("現像に失敗: %w", err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// 前の排出タイマーをキャンセルして丸ごと置き換える（後勝ち）
	if p.ejectTimer != nil {
		p.ejectTimer.Stop()
	}

	slot := &Slot{
		Image:     finished,
		ProfileID: profileID,
		Flash:     flash,
		CreatedAt: finished.CreatedAt,
		Ejecting:  true,
	}
	p.slot = slot
	p.capturing = false

	// 排出タイマー: 満了でEjectingフラグだけを落とす（画像は残る）
	p.ejectTimer = time.AfterFunc(p.ejectDuration, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.slot == slot {
			p.slot.Ejecting = false
		}
	})

	// フラッシュ発光: 排出タイマーとは独立した短い視覚パルス
	if flash {
		if p.flashTimer != nil {
			p.flashTimer.Stop()
		}
		p.flashActive = true
		p.flashTimer = time.AfterFunc(p.flashDuration, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.flashActive = false
		})
	}

	return nil
}

// Pickup はスロットの画像をカードとしてキャンバスへ配置する
// スロットが空の場合はエラーではなく無操作（nilを返す）
func (p *Printer) Pickup(x, y float64) (*surface.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slot == nil {
		return nil, nil // 2回目のピックアップは無操作
	}

	item := &surface.Item{
		ID:        uuid.New().String(),
		Image:     p.slot.Image,
		CreatedAt: p.slot.CreatedAt,
		Position: surface.Position{
			X: x - pickupOffsetX,
			Y: y - pickupOffsetY,
		},
		RotationDegrees: rand.Float64()*pickupRotationJitter*2 - pickupRotationJitter,
		ScaleFactor:     1.0,
		FrameColor:      film.RandomFrameColor(),
	}

	// 末尾に追加され、選択状態になる（＝最前面）
	if err := p.store.Add(item); err != nil {
		return nil, fmt.Errorf("カードの配置に失敗: %w", err)
	}

	// スロットをクリアし、排出タイマーも止める
	p.slot = nil
	if p.ejectTimer != nil {
		p.ejectTimer.Stop()
		p.ejectTimer = nil
	}

	return item, nil
}

// Slot は現在のスロット状態のコピーを返す（空の場合はnil）
func (p *Printer) Slot() *Slot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slot == nil {
		return nil
	}
	copied := *p.slot
	return &copied
}

// FlashActive はフラッシュ発光パルス中かどうかを返す
func (p *Printer) FlashActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flashActive
}

// SetProfile は撮影プロファイルを切り替える
func (p *Printer) SetProfile(id film.ProfileID) error {
	if _, err := film.ProfileByID(id); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileID = id
	return nil
}

// Profile は現在の撮影プロファイルIDを返す
func (p *Printer) Profile() film.ProfileID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profileID
}

// SetFlash はフラッシュの有効/無効を切り替える
func (p *Printer) SetFlash(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flashEnabled = enabled
}

// FlashEnabled はフラッシュが有効かどうかを返す
func (p *Printer) FlashEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flashEnabled
}

// SetClosed はカメラUIの開閉状態を設定する（閉じている間はキャプチャ不可）
func (p *Printer) SetClosed(closed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = closed
}

// HasSource はフレームソースが存在するかどうかを返す（縮退状態の判定用）
func (p *Printer) HasSource() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source != nil
}

// SourceStatus はフレームソースの状態を返す（ソースなしの場合はStatusError）
func (p *Printer) SourceStatus() camera.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		return camera.StatusError
	}
	return p.source.GetStatus()
}

// Source はフレームソースを返す（ライブプレビュー配信用、nil可）
func (p *Printer) Source() camera.FrameSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}
