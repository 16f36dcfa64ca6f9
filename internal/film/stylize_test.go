package film

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// uniformImage は単色のテスト用画像を作成する
func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestStylize_InvalidFrame(t *testing.T) {
	profile, err := ProfileByID(ProfileNormal)
	if err != nil {
		t.Fatalf("ProfileByID failed: %v", err)
	}

	testCases := []struct {
		name  string
		frame image.Image
	}{
		{name: "nilフレーム", frame: nil},
		{name: "幅ゼロ", frame: image.NewNRGBA(image.Rect(0, 0, 0, 100))},
		{name: "高さゼロ", frame: image.NewNRGBA(image.Rect(0, 0, 100, 0))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Stylize(tc.frame, profile, false)
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Expected ErrInvalidFrame, got %v", err)
			}
		})
	}
}

func TestStylize_SquareOutput(t *testing.T) {
	profile, err := ProfileByID(ProfileNormal)
	if err != nil {
		t.Fatalf("ProfileByID failed: %v", err)
	}

	// 横長フレームは短辺サイズの正方形になる
	frame := uniformImage(320, 200, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	finished, err := Stylize(frame, profile, false)
	if err != nil {
		t.Fatalf("Stylize failed: %v", err)
	}

	if finished.Width != 200 || finished.Height != 200 {
		t.Errorf("Expected 200x200 output, got %dx%d", finished.Width, finished.Height)
	}

	// エンコード済みデータが有効なJPEGであることを確認
	decoded, err := jpeg.Decode(bytes.NewReader(finished.Data))
	if err != nil {
		t.Fatalf("Encoded data is not valid JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 200 {
		t.Errorf("Decoded width mismatch: got %d, want 200", decoded.Bounds().Dx())
	}
}

func TestStylize_GrainMeanBound(t *testing.T) {
	// 一様画像に粒子ノイズを乗せても、平均値の変動は grain/2 以内に収まる
	testCases := []struct {
		name   string
		amount int
	}{
		{name: "標準の粒子", amount: grainAmountDefault},
		{name: "ブルーの粒子", amount: grainAmountBlue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := uniformImage(100, 100, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
			applyGrain(img, tc.amount)

			sum := 0.0
			count := 0
			for y := 0; y < 100; y++ {
				for x := 0; x < 100; x++ {
					c := img.NRGBAAt(x, y)
					sum += float64(c.R)
					count++
				}
			}

			mean := sum / float64(count)
			bound := float64(tc.amount) / 2
			if mean < 128-bound || mean > 128+bound {
				t.Errorf("Mean %f outside bound 128±%f", mean, bound)
			}
		})
	}
}

func TestStylize_GrainClamping(t *testing.T) {
	// 黒と白の画像でもノイズがチャンネル範囲を超えない（クランプされる）
	black := uniformImage(50, 50, color.NRGBA{A: 255})
	white := uniformImage(50, 50, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	applyGrain(black, grainAmountDefault)
	applyGrain(white, grainAmountDefault)

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			b := black.NRGBAAt(x, y)
			w := white.NRGBAAt(x, y)
			if b.R > uint8(grainAmountDefault/2) {
				t.Fatalf("Black pixel out of range: %d", b.R)
			}
			if w.R < 255-uint8(grainAmountDefault/2) {
				t.Fatalf("White pixel out of range: %d", w.R)
			}
		}
	}
}

func TestCropAndMirror(t *testing.T) {
	// 左半分が赤、右半分が青の画像は、反転後に左右が入れ替わる
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
			}
		}
	}

	mirrored, err := cropAndMirror(img)
	if err != nil {
		t.Fatalf("cropAndMirror failed: %v", err)
	}

	left := mirrored.NRGBAAt(10, 50)
	right := mirrored.NRGBAAt(90, 50)
	if left.B != 255 || left.R != 0 {
		t.Errorf("Expected blue on left after mirror, got %+v", left)
	}
	if right.R != 255 || right.B != 0 {
		t.Errorf("Expected red on right after mirror, got %+v", right)
	}
}

// panicImage はピクセル読み取りで必ずパニックする image.Image 実装
type panicImage struct{}

func (panicImage) ColorModel() color.Model { return color.NRGBAModel }
func (panicImage) Bounds() image.Rectangle { return image.Rect(0, 0, 10, 10) }
func (panicImage) At(x, y int) color.Color { panic("pixel access denied") }

func TestStylize_PixelAccessDenied(t *testing.T) {
	profile, err := ProfileByID(ProfileNormal)
	if err != nil {
		t.Fatalf("ProfileByID failed: %v", err)
	}

	finished, err := Stylize(panicImage{}, profile, false)
	if !errors.Is(err, ErrPixelAccess) {
		t.Errorf("Expected ErrPixelAccess, got %v", err)
	}
	if finished != nil {
		t.Error("No partial image should be returned on failure")
	}
}

func TestStylize_AllProfilesAndFlash(t *testing.T) {
	// 全プロファイル×フラッシュ有無の組み合わせが正常に現像できる
	frame := uniformImage(120, 120, color.NRGBA{R: 100, G: 150, B: 200, A: 255})

	for _, p := range Profiles() {
		for _, flash := range []bool{false, true} {
			finished, err := Stylize(frame, p, flash)
			if err != nil {
				t.Errorf("Stylize(%s, flash=%v) failed: %v", p.ID, flash, err)
				continue
			}
			if len(finished.Data) == 0 {
				t.Errorf("Stylize(%s, flash=%v) returned empty data", p.ID, flash)
			}
		}
	}
}
