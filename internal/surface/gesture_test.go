package surface

import (
	"errors"
	"math"
	"testing"
)

func TestEngine_DragPreservesGrabPoint(t *testing.T) {
	// (0,0)のカードを(50,50)で掴んで(200,200)へ移動すると位置は(150,150)
	store := NewStore()
	engine := NewEngine(store)
	item := newTestItem()
	_ = store.Add(item)

	if err := engine.PointerDown(item.ID, GestureDrag, 50, 50); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}

	if err := engine.PointerMove(200, 200); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}

	got, _ := store.Get(item.ID)
	if got.Position.X != 150 || got.Position.Y != 150 {
		t.Errorf("Position = (%f, %f), want (150, 150)", got.Position.X, got.Position.Y)
	}

	engine.PointerUp()
	if _, _, active := engine.ActiveGesture(); active {
		t.Error("Expected no active gesture after PointerUp")
	}
}

func TestEngine_DragUnbounded(t *testing.T) {
	// カードはサーフェス外（負の座標）へもドラッグできる
	store := NewStore()
	engine := NewEngine(store)
	item := newTestItem()
	_ = store.Add(item)

	_ = engine.PointerDown(item.ID, GestureDrag, 0, 0)
	_ = engine.PointerMove(-500, -500)

	got, _ := store.Get(item.ID)
	if got.Position.X != -500 || got.Position.Y != -500 {
		t.Errorf("Position = (%f, %f), want (-500, -500)", got.Position.X, got.Position.Y)
	}
}

// placeItemWithCenter は中心が指定座標になるようカードを配置する
func placeItemWithCenter(store *Store, cx, cy float64) *Item {
	item := newTestItem()
	item.Position = Position{
		X: cx - CardWidth/2,
		Y: cy - CardHeight/2,
	}
	_ = store.Add(item)
	return item
}

func TestEngine_RotationPureFunction(t *testing.T) {
	// 回転角はポインターと中心位置の純粋関数
	testCases := []struct {
		name     string
		pointerX float64
		pointerY float64
		expected float64
	}{
		{name: "真上で0度", pointerX: 100, pointerY: 50, expected: 0},
		{name: "真右で90度", pointerX: 150, pointerY: 100, expected: 90},
		{name: "真下で180度", pointerX: 100, pointerY: 150, expected: 180},
		{name: "真左で-90度", pointerX: 50, pointerY: 100, expected: -90},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			engine := NewEngine(store)
			item := placeItemWithCenter(store, 100, 100)

			if err := engine.PointerDown(item.ID, GestureRotate, 100, 100); err != nil {
				t.Fatalf("PointerDown failed: %v", err)
			}
			if err := engine.PointerMove(tc.pointerX, tc.pointerY); err != nil {
				t.Fatalf("PointerMove failed: %v", err)
			}

			got, _ := store.Get(item.ID)
			if math.Abs(got.RotationDegrees-tc.expected) > 1e-9 {
				t.Errorf("RotationDegrees = %f, want %f", got.RotationDegrees, tc.expected)
			}
		})
	}
}

func TestEngine_ResizeDistanceMapping(t *testing.T) {
	// 中心から150pxが拡大率1.0。0pxで下限、450pxで上限
	testCases := []struct {
		name     string
		distance float64
		expected float64
	}{
		{name: "距離0で下限", distance: 0, expected: 0.3},
		{name: "距離150で等倍", distance: 150, expected: 1.0},
		{name: "距離450で上限", distance: 450, expected: 3.0},
		{name: "距離600でもクランプ", distance: 600, expected: 3.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			engine := NewEngine(store)
			item := placeItemWithCenter(store, 100, 100)

			if err := engine.PointerDown(item.ID, GestureResize, 100, 100); err != nil {
				t.Fatalf("PointerDown failed: %v", err)
			}
			// 中心の真右、指定距離の位置へ移動する
			if err := engine.PointerMove(100+tc.distance, 100); err != nil {
				t.Fatalf("PointerMove failed: %v", err)
			}

			got, _ := store.Get(item.ID)
			if math.Abs(got.ScaleFactor-tc.expected) > 1e-9 {
				t.Errorf("ScaleFactor = %f, want %f", got.ScaleFactor, tc.expected)
			}
		})
	}
}

func TestEngine_SingleActiveGesture(t *testing.T) {
	// ジェスチャー進行中は別カードのジェスチャーを開始できない
	store := NewStore()
	engine := NewEngine(store)
	itemA := newTestItem()
	itemB := newTestItem()
	_ = store.Add(itemA)
	_ = store.Add(itemB)

	if err := engine.PointerDown(itemA.ID, GestureDrag, 0, 0); err != nil {
		t.Fatalf("PointerDown A failed: %v", err)
	}

	err := engine.PointerDown(itemB.ID, GestureDrag, 0, 0)
	if !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("Expected ErrGestureInProgress, got %v", err)
	}

	// ポインターアップ後は開始できる
	engine.PointerUp()
	if err := engine.PointerDown(itemB.ID, GestureDrag, 0, 0); err != nil {
		t.Fatalf("PointerDown B after up failed: %v", err)
	}
}

func TestEngine_PointerDownSelects(t *testing.T) {
	store := NewStore()
	engine := NewEngine(store)
	itemA := newTestItem()
	itemB := newTestItem()
	_ = store.Add(itemA)
	_ = store.Add(itemB) // Bが選択状態

	if err := engine.PointerDown(itemA.ID, GestureDrag, 0, 0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}

	if store.SelectedID() != itemA.ID {
		t.Errorf("Expected A selected on gesture start, got %s", store.SelectedID())
	}
}

func TestEngine_BackgroundClickClearsSelection(t *testing.T) {
	store := NewStore()
	engine := NewEngine(store)
	item := newTestItem()
	_ = store.Add(item) // 選択状態

	// 背景クリック（itemIDなし）で選択がクリアされる
	if err := engine.PointerDown("", GestureDrag, 300, 300); err != nil {
		t.Fatalf("Background PointerDown failed: %v", err)
	}

	if store.SelectedID() != "" {
		t.Errorf("Expected selection cleared, got %s", store.SelectedID())
	}

	// 背景クリックはジェスチャー枠を消費しない
	if _, _, active := engine.ActiveGesture(); active {
		t.Error("Background click should not claim the gesture slot")
	}
}

func TestEngine_MoveWithoutGesture(t *testing.T) {
	// ジェスチャーなしのポインター移動は何もしない
	store := NewStore()
	engine := NewEngine(store)
	item := newTestItem()
	_ = store.Add(item)

	if err := engine.PointerMove(500, 500); err != nil {
		t.Fatalf("PointerMove without gesture failed: %v", err)
	}

	got, _ := store.Get(item.ID)
	if got.Position.X != 0 || got.Position.Y != 0 {
		t.Errorf("Position should be unchanged, got (%f, %f)", got.Position.X, got.Position.Y)
	}
}

func TestEngine_Reset(t *testing.T) {
	// 外部リセットで放棄されたジェスチャーが終了する
	store := NewStore()
	engine := NewEngine(store)
	item := newTestItem()
	_ = store.Add(item)

	_ = engine.PointerDown(item.ID, GestureDrag, 0, 0)
	engine.Reset()

	if _, _, active := engine.ActiveGesture(); active {
		t.Error("Expected no active gesture after Reset")
	}
}
