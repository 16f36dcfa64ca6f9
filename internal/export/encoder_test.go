package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"cheki/internal/film"
	"cheki/internal/surface"
)

// newTestItem は小さな現像済み画像を持つカードを作成する
func newTestItem(t *testing.T) *surface.Item {
	t.Helper()

	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 120, B: 80, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("テスト画像のエンコードに失敗: %v", err)
	}

	return &surface.Item{
		ID: "test-card",
		Image: &film.FinishedImage{
			Data:      buf.Bytes(),
			Width:     64,
			Height:    64,
			CreatedAt: time.Date(2024, 6, 1, 14, 30, 0, 0, time.Local),
		},
		CreatedAt:   time.Date(2024, 6, 1, 14, 30, 0, 0, time.Local),
		ScaleFactor: 1.0,
		FrameColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

func TestEncoder_ExportProducesCard(t *testing.T) {
	e := NewEncoder(0, 0, 0)
	item := newTestItem(t)

	result := <-e.Export(context.Background(), item)
	if result.Err != nil {
		t.Fatalf("エクスポートに失敗: %v", result.Err)
	}

	if result.Filename != "cheki_test-card.jpg" {
		t.Errorf("Expected filename cheki_test-card.jpg, got %q", result.Filename)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("出力のデコードに失敗: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != DefaultWidth || bounds.Dy() != DefaultHeight {
		t.Errorf("Expected %dx%d output, got %dx%d",
			DefaultWidth, DefaultHeight, bounds.Dx(), bounds.Dy())
	}
}

func TestEncoder_FrameColorFillsBorder(t *testing.T) {
	e := NewEncoder(0, 0, 0)
	item := newTestItem(t)
	item.FrameColor = color.NRGBA{R: 255, G: 214, B: 224, A: 255} // 桃色フレーム

	result := <-e.Export(context.Background(), item)
	if result.Err != nil {
		t.Fatalf("エクスポートに失敗: %v", result.Err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("出力のデコードに失敗: %v", err)
	}

	// 左上の角は写真領域の外なのでフレーム色に近いはず
	r, g, b, _ := decoded.At(5, 5).RGBA()
	if absInt(int(r>>8)-255) > 12 || absInt(int(g>>8)-214) > 12 || absInt(int(b>>8)-224) > 12 {
		t.Errorf("Expected frame color near (255, 214, 224), got (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestEncoder_DecodeFailure(t *testing.T) {
	e := NewEncoder(0, 0, 0)

	cases := []struct {
		name string
		item *surface.Item
	}{
		{name: "nilカード", item: nil},
		{name: "画像なし", item: &surface.Item{ID: "a"}},
		{name: "空データ", item: &surface.Item{ID: "b", Image: &film.FinishedImage{}}},
		{name: "壊れたデータ", item: &surface.Item{
			ID:    "c",
			Image: &film.FinishedImage{Data: []byte("not a jpeg")},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := <-e.Export(context.Background(), tc.item)
			if !errors.Is(result.Err, ErrDecodeFailure) {
				t.Errorf("Expected ErrDecodeFailure, got %v", result.Err)
			}
			if result.Data != nil {
				t.Error("Expected no partial output on decode failure")
			}
		})
	}
}

func TestEncoder_ContextCancel(t *testing.T) {
	e := NewEncoder(0, 0, 0)
	item := newTestItem(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// キャンセル済みでもチャンネルは必ずクローズされる
	ch := e.Export(ctx, item)
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected export channel to close after cancel")
	}
}

func TestEncoder_CustomDimensions(t *testing.T) {
	e := NewEncoder(300, 360, 80)
	item := newTestItem(t)

	result := <-e.Export(context.Background(), item)
	if result.Err != nil {
		t.Fatalf("エクスポートに失敗: %v", result.Err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("出力のデコードに失敗: %v", err)
	}
	if decoded.Bounds().Dx() != 300 || decoded.Bounds().Dy() != 360 {
		t.Errorf("Expected 300x360 output, got %dx%d",
			decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
