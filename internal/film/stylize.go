package film

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"math/rand/v2"
	"time"
)

// 現像処理のエラー
var (
	// ErrInvalidFrame は幅か高さが0のフレームを示す
	ErrInvalidFrame = errors.New("フレームの寸法が無効です")
	// ErrPixelAccess はピクセルデータの読み取りに失敗したことを示す
	ErrPixelAccess = errors.New("ピクセルデータの読み取りに失敗しました")
)

// 粒子ノイズの強さ（ブループロファイルは控えめ）
const (
	grainAmountBlue    = 14
	grainAmountDefault = 22
)

// JPEGエンコード品質
const encodeQuality = 95

// FinishedImage は現像済みの静止画を表す
type FinishedImage struct {
	Data      []byte      // JPEGエンコード済みデータ
	Image     image.Image // デコード済み画像（表示用）
	Width     int         // 画像幅
	Height    int         // 画像高さ
	CreatedAt time.Time   // 現像時刻
}

// Stylize は生フレームをチェキ風の静止画に現像する
// 粒子ノイズの乱数を除いて決定的な純粋関数
func Stylize(frame image.Image, profile StyleProfile, flash bool) (*FinishedImage, error) {
	if frame == nil {
		return nil, ErrInvalidFrame
	}

	bounds := frame.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrInvalidFrame
	}

	// 1. 中央の正方形領域をクロップしつつ 2. 左右反転（自撮りミラー）
	mirrored, err := cropAndMirror(frame)
	if err != nil {
		return nil, err
	}

	// ブルーム用に反転直後の状態を保持しておく
	var bloomSource *image.NRGBA
	if !flash {
		bloomSource = cloneNRGBA(mirrored)
	}

	// 3. ベースカラーグレード（ニュートラル/ブルー × フラッシュ有無の4組）
	applyMatrix(mirrored, matrixFor(gradeFor(profile.ID, flash)))

	// 4. フラッシュカラーキャスト（ブループロファイル＋フラッシュ時のみ）
	if flash && profile.ID == ProfileBlue {
		blendColor(mirrored, color.NRGBA{R: 0x10, G: 0x1E, B: 0x50}, 0.35, blendMultiply)
	}

	// 5. ティントオーバーレイ
	if profile.ID == ProfileBlue {
		// ブルーは明色2枚の重ね掛け（フラッシュ有無に依らない）
		blendColor(mirrored, color.NRGBA{R: 0xAF, G: 0xC8, B: 0xFF}, 0.18, blendLighten)
		blendColor(mirrored, color.NRGBA{R: 0xDC, G: 0xE8, B: 0xFF}, 0.12, blendScreen)
	} else if profile.Overlay != nil {
		blendColor(mirrored, *profile.Overlay, float64(profile.Overlay.A)/255, blendOverlay)
	}

	// 6. ブルーム（フラッシュ時は光量が足りているため省略）
	if bloomSource != nil {
		gaussianBlur(bloomSource, 6)
		blendImage(mirrored, bloomSource, 0.35, blendLighten)
	}

	// 7. ビネット（フラッシュは内径が大きく、縁の落ち込みが急になる）
	if flash {
		applyVignette(mirrored, profile.Vignette, 0.70, 1.05)
	} else {
		applyVignette(mirrored, profile.Vignette, 0.50, 1.30)
	}

	// 8. ブルーの二次キャスト（ビネットの後にもう一段暗い青を重ねる）
	if profile.ID == ProfileBlue {
		blendColor(mirrored, color.NRGBA{R: 0x1E, G: 0x3C, B: 0x96}, 0.10, blendDarken)
	}

	// 9. 粒子ノイズ
	grain := grainAmountDefault
	if profile.ID == ProfileBlue {
		grain = grainAmountBlue
	}
	applyGrain(mirrored, grain)

	// 10. JPEGエンコード
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, mirrored, &jpeg.Options{Quality: encodeQuality}); err != nil {
		return nil, fmt.Errorf("JPEGエンコードに失敗: %w", err)
	}

	side := mirrored.Bounds().Dx()
	return &FinishedImage{
		Data:      buf.Bytes(),
		Image:     mirrored,
		Width:     side,
		Height:    side,
		CreatedAt: time.Now(),
	}, nil
}

// cropAndMirror は中央の正方形領域を切り出し、左右反転したNRGBA画像を返す
// 行儀の悪い image.Image 実装によるピクセル読み取り失敗は ErrPixelAccess として返す
func cropAndMirror(src image.Image) (result *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrPixelAccess, r)
		}
	}()

	bounds := src.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}

	offsetX := bounds.Min.X + (bounds.Dx()-side)/2
	offsetY := bounds.Min.Y + (bounds.Dy()-side)/2

	// 一旦NRGBAに正規化してから反転する
	cropped := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.Draw(cropped, cropped.Bounds(), src, image.Pt(offsetX, offsetY), draw.Src)

	out := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		srcRow := cropped.Pix[y*cropped.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < side; x++ {
			si := (side - 1 - x) * 4
			di := x * 4
			dstRow[di] = srcRow[si]
			dstRow[di+1] = srcRow[si+1]
			dstRow[di+2] = srcRow[si+2]
			dstRow[di+3] = 0xFF
		}
	}

	return out, nil
}

// cloneNRGBA は画像の複製を返す
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// gaussianBlur は分離可能な1次元カーネルで縦横2パスのぼかしを適用する
func gaussianBlur(img *image.NRGBA, radius int) {
	if radius <= 0 {
		return
	}

	kernel := gaussianKernel(radius)
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	temp := image.NewNRGBA(bounds)

	// 横方向パス
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				weight := kernel[k+radius]
				i := y*img.Stride + sx*4
				r += float64(img.Pix[i]) * weight
				g += float64(img.Pix[i+1]) * weight
				b += float64(img.Pix[i+2]) * weight
			}
			i := y*temp.Stride + x*4
			temp.Pix[i] = clampByte(r)
			temp.Pix[i+1] = clampByte(g)
			temp.Pix[i+2] = clampByte(b)
			temp.Pix[i+3] = 0xFF
		}
	}

	// 縦方向パス
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				weight := kernel[k+radius]
				i := sy*temp.Stride + x*4
				r += float64(temp.Pix[i]) * weight
				g += float64(temp.Pix[i+1]) * weight
				b += float64(temp.Pix[i+2]) * weight
			}
			i := y*img.Stride + x*4
			img.Pix[i] = clampByte(r)
			img.Pix[i+1] = clampByte(g)
			img.Pix[i+2] = clampByte(b)
			img.Pix[i+3] = 0xFF
		}
	}
}

// gaussianKernel は正規化済みの1次元ガウスカーネルを返す
func gaussianKernel(radius int) []float64 {
	sigma := float64(radius) / 2
	if sigma < 1 {
		sigma = 1
	}

	kernel := make([]float64, radius*2+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// applyVignette は中心から縁に向かう放射状グラデーションを乗算合成する
// inner/outer は画像半径（短辺の半分）に対する比率
func applyVignette(img *image.NRGBA, c color.NRGBA, inner, outer float64) {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	cx := w / 2
	cy := h / 2
	half := math.Min(cx, cy)

	innerR := half * inner
	outerR := half * outer
	maxAlpha := float64(c.A) / 255

	for y := 0; y < bounds.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		dy := float64(y) + 0.5 - cy
		for x := 0; x < bounds.Dx(); x++ {
			dx := float64(x) + 0.5 - cx
			dist := math.Hypot(dx, dy)

			// 内径より内側は透明、外径で最大不透明度に達する
			var t float64
			switch {
			case dist <= innerR:
				continue
			case dist >= outerR:
				t = 1
			default:
				t = (dist - innerR) / (outerR - innerR)
				// 滑らかな立ち上がり
				t = t * t * (3 - 2*t)
			}

			alpha := t * maxAlpha
			i := x * 4
			row[i] = clampByte(float64(row[i]) + (blendMultiply(float64(c.R), float64(row[i]))-float64(row[i]))*alpha)
			row[i+1] = clampByte(float64(row[i+1]) + (blendMultiply(float64(c.G), float64(row[i+1]))-float64(row[i+1]))*alpha)
			row[i+2] = clampByte(float64(row[i+2]) + (blendMultiply(float64(c.B), float64(row[i+2]))-float64(row[i+2]))*alpha)
		}
	}
}

// applyGrain は±amount/2の一様乱数ノイズをRGB各チャンネルに同値で加算する
func applyGrain(img *image.NRGBA, amount int) {
	if amount <= 0 {
		return
	}

	bounds := img.Bounds()
	half := float64(amount) / 2
	for y := 0; y < bounds.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			n := rand.Float64()*float64(amount) - half
			i := x * 4
			row[i] = clampByte(float64(row[i]) + n)
			row[i+1] = clampByte(float64(row[i+1]) + n)
			row[i+2] = clampByte(float64(row[i+2]) + n)
		}
	}
}
