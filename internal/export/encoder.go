package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"cheki/internal/surface"
)

// デフォルトのカードレイアウト
const (
	DefaultWidth   = 600 // キャンバス幅
	DefaultHeight  = 725 // キャンバス高さ
	DefaultQuality = 92  // JPEG品質

	photoPadding    = 30  // 写真の上・左右の余白（幅の5%）
	captionFontSize = 30  // キャプションのフォントサイズ
	captionTiltDeg  = -1.0
)

// ErrDecodeFailure は現像済み画像のデコード失敗を示す
// この場合は部分的な出力を一切生成しない
var ErrDecodeFailure = errors.New("画像のデコードに失敗しました")

// Result はエクスポート処理の結果を表す
type Result struct {
	Filename string // ダウンロード用ファイル名
	Data     []byte // エンコード済みJPEGデータ
	Err      error  // 失敗時のエラー（成功時はnil）
}

// Encoder はカードをJPEGファイルへ書き出す
type Encoder struct {
	width   int
	height  int
	quality int

	faceOnce sync.Once
	face     font.Face
	faceErr  error
}

// NewEncoder は指定サイズのEncoderを作成する
// 0以下の値はデフォルトに置き換える
func NewEncoder(width, height, quality int) *Encoder {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Encoder{width: width, height: height, quality: quality}
}

// Export はカードを非同期でエンコードし、結果チャンネルを返す
// デコードと合成は呼び出し側をブロックしない
func (e *Encoder) Export(ctx context.Context, item *surface.Item) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		result := e.encode(item)
		select {
		case ch <- result:
		case <-ctx.Done():
		}
	}()

	return ch
}

// encode は同期的にカードを合成してJPEGにする
func (e *Encoder) encode(item *surface.Item) Result {
	if item == nil || item.Image == nil || len(item.Image.Data) == 0 {
		return Result{Err: ErrDecodeFailure}
	}

	photo, _, err := image.Decode(bytes.NewReader(item.Image.Data))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrDecodeFailure, err)}
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, e.width, e.height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(item.FrameColor), image.Point{}, draw.Src)

	// 写真は幅の90%の正方形。上と左右に同じ余白をとる
	photoSize := e.width - 2*photoPadding
	photoRect := image.Rect(photoPadding, photoPadding, photoPadding+photoSize, photoPadding+photoSize)
	xdraw.CatmullRom.Scale(canvas, photoRect, photo, photo.Bounds(), xdraw.Over, nil)

	applyGradientShading(canvas, photoRect)

	if err := e.drawCaption(canvas, photoRect, item); err != nil {
		return Result{Err: err}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: e.quality}); err != nil {
		return Result{Err: fmt.Errorf("JPEGエンコードに失敗: %w", err)}
	}

	return Result{
		Filename: fmt.Sprintf("cheki_%s.jpg", item.ID),
		Data:     buf.Bytes(),
	}
}

// applyGradientShading は写真領域にのみ斜めの線形グラデーションを重ねる
// 左上をわずかに明るく、右下をわずかに暗くして印画らしい艶を出す
func applyGradientShading(canvas *image.NRGBA, rect image.Rectangle) {
	span := float64(rect.Dx() + rect.Dy())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := canvas.Pix[canvas.PixOffset(rect.Min.X, y):canvas.PixOffset(rect.Max.X, y)]
		for x := 0; x < rect.Dx(); x++ {
			t := float64(x+(y-rect.Min.Y)) / span
			// t=0で+14の持ち上げ、t=1で-14の沈み込み
			shift := 14.0 * (1.0 - 2.0*t)

			i := x * 4
			row[i+0] = clampByte(float64(row[i+0]) + shift)
			row[i+1] = clampByte(float64(row[i+1]) + shift)
			row[i+2] = clampByte(float64(row[i+2]) + shift)
		}
	}
}

// captionFace はキャプション用フォントフェイスを遅延初期化する
func (e *Encoder) captionFace() (font.Face, error) {
	e.faceOnce.Do(func() {
		parsed, err := opentype.Parse(goregular.TTF)
		if err != nil {
			e.faceErr = fmt.Errorf("フォントの解析に失敗: %w", err)
			return
		}
		e.face, e.faceErr = opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    captionFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return e.face, e.faceErr
}

// drawCaption は撮影時刻をわずかに傾けて下帯の中央に描く
func (e *Encoder) drawCaption(canvas *image.NRGBA, photoRect image.Rectangle, item *surface.Item) error {
	face, err := e.captionFace()
	if err != nil {
		return err
	}

	text := item.CreatedAt.Format("15:04")

	d := &font.Drawer{
		Src:  image.NewUniform(color.NRGBA{R: 0x50, G: 0x46, B: 0x46, A: 0xFF}),
		Face: face,
	}
	textWidth := d.MeasureString(text).Ceil()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	labelHeight := metrics.Height.Ceil() + 8
	labelWidth := textWidth + 16

	// まっすぐなラベルを作ってから回転合成する
	label := image.NewNRGBA(image.Rect(0, 0, labelWidth, labelHeight))
	d.Dst = label
	d.Dot = fixed.P(8, 4+ascent)
	d.DrawString(text)

	bandCenterY := (photoRect.Max.Y + canvas.Bounds().Max.Y) / 2
	compositeRotated(canvas, label, canvas.Bounds().Dx()/2, bandCenterY, captionTiltDeg)
	return nil
}

// compositeRotated はラベル画像を中心(cx, cy)にdegrees度回転して合成する
func compositeRotated(dst *image.NRGBA, label *image.NRGBA, cx, cy int, degrees float64) {
	rad := degrees * math.Pi / 180.0
	sin, cos := math.Sin(rad), math.Cos(rad)

	lw, lh := float64(label.Bounds().Dx()), float64(label.Bounds().Dy())
	// 回転後の外接矩形ぶんだけ走査する
	half := int(math.Ceil(0.5*(lw*math.Abs(cos)+lh*math.Abs(sin)))) + 1
	halfV := int(math.Ceil(0.5*(lw*math.Abs(sin)+lh*math.Abs(cos)))) + 1

	for dy := -halfV; dy <= halfV; dy++ {
		for dx := -half; dx <= half; dx++ {
			// 逆変換でラベル座標を求める
			sx := cos*float64(dx) + sin*float64(dy) + lw/2
			sy := -sin*float64(dx) + cos*float64(dy) + lh/2

			xi, yi := int(math.Floor(sx)), int(math.Floor(sy))
			if xi < 0 || yi < 0 || xi >= label.Bounds().Dx() || yi >= label.Bounds().Dy() {
				continue
			}

			c := label.NRGBAAt(xi, yi)
			if c.A == 0 {
				continue
			}

			px, py := cx+dx, cy+dy
			if !image.Pt(px, py).In(dst.Bounds()) {
				continue
			}

			// 単純なアルファ合成
			base := dst.NRGBAAt(px, py)
			a := float64(c.A) / 255.0
			dst.SetNRGBA(px, py, color.NRGBA{
				R: clampByte(float64(c.R)*a + float64(base.R)*(1-a)),
				G: clampByte(float64(c.G)*a + float64(base.G)*(1-a)),
				B: clampByte(float64(c.B)*a + float64(base.B)*(1-a)),
				A: 255,
			})
		}
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
