package surface

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"cheki/internal/film"
)

// カードのジオメトリ定数
const (
	// CardWidth は基準サイズでのカード幅
	CardWidth = 240.0
	// CardHeight は基準サイズでのカード高さ
	CardHeight = 290.0

	// ScaleMin は拡大率の下限
	ScaleMin = 0.3
	// ScaleMax は拡大率の上限
	ScaleMax = 3.0
)

// Position はサーフェス座標上の位置を表す
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Item はキャンバスに置かれた1枚のカードを表す
type Item struct {
	ID              string              `json:"id"`               // 一意識別子（作成時に割り当て、不変）
	Image           *film.FinishedImage `json:"-"`                // 現像済み画像（このカードが唯一の所有者、不変）
	CreatedAt       time.Time           `json:"created_at"`       // 撮影時刻（不変、キャプションに使用）
	Position        Position            `json:"position"`         // 左上アンカーの位置
	RotationDegrees float64             `json:"rotation_degrees"` // 回転角（度）
	ScaleFactor     float64             `json:"scale_factor"`     // 拡大率
	FrameColor      color.NRGBA         `json:"frame_color"`      // 台紙色（作成時に抽選、不変）
}

// Center はカードのバウンディングボックス中心を返す
func (i *Item) Center() Position {
	return Position{
		X: i.Position.X + CardWidth*i.ScaleFactor/2,
		Y: i.Position.Y + CardHeight*i.ScaleFactor/2,
	}
}

// Store はカードの順序付きコレクションと選択状態の単一の管理元
type Store struct {
	items      []*Item
	selectedID string
	mu         sync.RWMutex
}

// NewStore は新しいStoreを作成する
func NewStore() *Store {
	return &Store{}
}

// Add はカードを末尾に追加し、選択状態にする
func (s *Store) Add(item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// IDの一意性を保証する
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return fmt.Errorf("カードIDが重複しています: %s", item.ID)
		}
	}

	// 拡大率の不変条件を入口で保証する
	item.ScaleFactor = clampScale(item.ScaleFactor)

	s.items = append(s.items, item)
	s.selectedID = item.ID
	return nil
}

// Delete はカードを無条件に削除する
// 選択中のカードだった場合は選択状態もクリアする
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			if s.selectedID == id {
				s.selectedID = ""
			}
			return nil
		}
	}

	return fmt.Errorf("カードが見つかりません: %s", id)
}

// Get は指定されたIDのカードを取得する
func (s *Store) Get(id string) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id)
}

// findLocked はロック済み前提でカードを検索する
func (s *Store) findLocked(id string) (*Item, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

// Items は挿入順のカード一覧を返す
func (s *Store) Items() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Item, len(s.items))
	copy(result, s.items)
	return result
}

// RenderOrder は描画順のカード一覧を返す
// 挿入順を基本とし、選択中のカードを最後（最前面）に回す
// zインデックスは保存せず、ここで毎回導出する
func (s *Store) RenderOrder() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Item, 0, len(s.items))
	var selected *Item
	for _, item := range s.items {
		if item.ID == s.selectedID {
			selected = item
			continue
		}
		result = append(result, item)
	}
	if selected != nil {
		result = append(result, selected)
	}
	return result
}

// Select はカードを選択状態にする（既存の選択は解除される）
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.findLocked(id); !found {
		return fmt.Errorf("カードが見つかりません: %s", id)
	}

	s.selectedID = id
	return nil
}

// ClearSelection は選択状態をクリアする
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// SelectedID は選択中のカードIDを返す（選択なしの場合は空文字列）
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// Count はカード数を返す
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// UpdatePosition はカードの位置を更新する（ジェスチャーエンジン専用）
func (s *Store) UpdatePosition(id string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.findLocked(id)
	if !found {
		return fmt.Errorf("カードが見つかりません: %s", id)
	}

	item.Position = pos
	return nil
}

// UpdateRotation はカードの回転角を更新する（ジェスチャーエンジン専用）
// 表示のために [-180, 180] に正規化する
func (s *Store) UpdateRotation(id string, degrees float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.findLocked(id)
	if !found {
		return fmt.Errorf("カードが見つかりません: %s", id)
	}

	item.RotationDegrees = normalizeDegrees(degrees)
	return nil
}

// UpdateScale はカードの拡大率を更新する（ジェスチャーエンジン専用）
// 値は常に [ScaleMin, ScaleMax] にクランプされる
func (s *Store) UpdateScale(id string, scale float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.findLocked(id)
	if !found {
		return fmt.Errorf("カードが見つかりません: %s", id)
	}

	item.ScaleFactor = clampScale(scale)
	return nil
}

// clampScale は拡大率を有効範囲に収める
func clampScale(scale float64) float64 {
	if scale < ScaleMin {
		return ScaleMin
	}
	if scale > ScaleMax {
		return ScaleMax
	}
	return scale
}

// normalizeDegrees は角度を [-180, 180] に折り返す
func normalizeDegrees(degrees float64) float64 {
	for degrees > 180 {
		degrees -= 360
	}
	for degrees < -180 {
		degrees += 360
	}
	return degrees
}
