package surface

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// GestureMode はジェスチャーの種類を表す
type GestureMode string

const (
	// GestureDrag はカード本体のドラッグ移動
	GestureDrag GestureMode = "drag"
	// GestureRotate は回転ハンドルによる回転
	GestureRotate GestureMode = "rotate"
	// GestureResize はリサイズハンドルによる拡大縮小
	GestureResize GestureMode = "resize"
)

// ResizeReferenceDistance は拡大率1.0に対応する中心からの距離（ピクセル）
const ResizeReferenceDistance = 150.0

// ErrGestureInProgress は別のジェスチャーが進行中であることを示す
var ErrGestureInProgress = errors.New("別のジェスチャーが進行中です")

// activeGesture は進行中のジェスチャー状態
// プロセス全体で最大1つだけ存在する
type activeGesture struct {
	itemID  string
	mode    GestureMode
	offsetX float64 // ドラッグ用: ポインターとカード位置の差分
	offsetY float64
}

// Engine はポインターイベントを受けてカードの変形を駆動する状態機械
// カードの変形フィールドと選択状態の唯一の書き込み元
type Engine struct {
	store  *Store
	active *activeGesture
	mu     sync.Mutex
}

// NewEngine は新しいEngineを作成する
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// PointerDown はポインター押下を処理し、ジェスチャーを開始する
// itemID が空の場合は背景クリックとして選択をクリアするだけ
// 既にジェスチャーが進行中の場合は ErrGestureInProgress を返す
func (e *Engine) PointerDown(itemID string, mode GestureMode, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 背景クリックは選択クリアのみ
	if itemID == "" {
		e.store.ClearSelection()
		return nil
	}

	// アクティブなジェスチャー枠は1つだけ
	if e.active != nil {
		return ErrGestureInProgress
	}

	item, found := e.store.Get(itemID)
	if !found {
		return fmt.Errorf("カードが見つかりません: %s", itemID)
	}

	switch mode {
	case GestureDrag, GestureRotate, GestureResize:
	default:
		return fmt.Errorf("未知のジェスチャーモード: %s", mode)
	}

	gesture := &activeGesture{
		itemID: itemID,
		mode:   mode,
	}

	// ドラッグは掴んだ位置を保持するためオフセットを記録する
	if mode == GestureDrag {
		gesture.offsetX = x - item.Position.X
		gesture.offsetY = y - item.Position.Y
	}

	e.active = gesture

	// ジェスチャー開始でカードを選択状態にする（既存選択は解除）
	return e.store.Select(itemID)
}

// PointerMove はポインター移動を処理する
// アクティブなジェスチャーがない場合は何もしない
func (e *Engine) PointerMove(x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil
	}

	switch e.active.mode {
	case GestureDrag:
		// 位置はポインターからオフセットを引いた値（範囲制限なし）
		return e.store.UpdatePosition(e.active.itemID, Position{
			X: x - e.active.offsetX,
			Y: y - e.active.offsetY,
		})

	case GestureRotate:
		item, found := e.store.Get(e.active.itemID)
		if !found {
			return fmt.Errorf("カードが見つかりません: %s", e.active.itemID)
		}
		center := item.Center()
		// 中心の真上が0度になるよう+90度補正する
		degrees := math.Atan2(y-center.Y, x-center.X)*180/math.Pi + 90
		return e.store.UpdateRotation(e.active.itemID, degrees)

	case GestureResize:
		item, found := e.store.Get(e.active.itemID)
		if !found {
			return fmt.Errorf("カードが見つかりません: %s", e.active.itemID)
		}
		center := item.Center()
		distance := math.Hypot(x-center.X, y-center.Y)
		// 基準距離150pxが拡大率1.0。クランプはStoreが行う
		return e.store.UpdateScale(e.active.itemID, distance/ResizeReferenceDistance)
	}

	return nil
}

// PointerUp はポインター解放を処理し、ジェスチャーを終了する
// どこで解放されてもジェスチャーは終了する（グローバルリスナー相当）
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
}

// Reset は外部要因（接続断など）で放棄されたジェスチャーを強制終了する
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
}

// ActiveGesture は進行中のジェスチャー情報を返す
func (e *Engine) ActiveGesture() (itemID string, mode GestureMode, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return "", "", false
	}
	return e.active.itemID, e.active.mode, true
}
