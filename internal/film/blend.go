package film

import (
	"image"
	"image/color"
)

// blendFunc はチャンネル単位のブレンド関数（入力・出力とも0〜255）
type blendFunc func(src, dst float64) float64

// W3C Compositing and Blending Level 1 に準拠したチャンネルブレンド
// 全ピクセルが不透明である前提なので、プリマルチプライ処理は行わない

// blendMultiply は乗算ブレンド（暗くなる）
func blendMultiply(src, dst float64) float64 {
	return src * dst / 255
}

// blendScreen はスクリーンブレンド（明るくなる）
func blendScreen(src, dst float64) float64 {
	return 255 - (255-src)*(255-dst)/255
}

// blendOverlay はオーバーレイブレンド（下地に応じて乗算かスクリーン）
func blendOverlay(src, dst float64) float64 {
	if dst < 128 {
		return 2 * src * dst / 255
	}
	return 255 - 2*(255-src)*(255-dst)/255
}

// blendLighten は明るい方を採用するブレンド
func blendLighten(src, dst float64) float64 {
	if src > dst {
		return src
	}
	return dst
}

// blendDarken は暗い方を採用するブレンド
func blendDarken(src, dst float64) float64 {
	if src < dst {
		return src
	}
	return dst
}

// blendColor は画像全体に単色を指定の不透明度でブレンドする
// alpha は0.0〜1.0で、ブレンド結果と元の色の混合率を表す
func blendColor(img *image.NRGBA, c color.NRGBA, alpha float64, fn blendFunc) {
	if alpha <= 0 {
		return
	}

	sr := float64(c.R)
	sg := float64(c.G)
	sb := float64(c.B)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			i := x * 4
			dr := float64(row[i])
			dg := float64(row[i+1])
			db := float64(row[i+2])

			row[i] = clampByte(dr + (fn(sr, dr)-dr)*alpha)
			row[i+1] = clampByte(dg + (fn(sg, dg)-dg)*alpha)
			row[i+2] = clampByte(db + (fn(sb, db)-db)*alpha)
		}
	}
}

// blendImage は同サイズの画像 src を dst に指定の不透明度でブレンドする
func blendImage(dst, src *image.NRGBA, alpha float64, fn blendFunc) {
	if alpha <= 0 {
		return
	}

	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		drow := dst.Pix[(y-bounds.Min.Y)*dst.Stride:]
		srow := src.Pix[(y-bounds.Min.Y)*src.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			i := x * 4
			dr := float64(drow[i])
			dg := float64(drow[i+1])
			db := float64(drow[i+2])

			drow[i] = clampByte(dr + (fn(float64(srow[i]), dr)-dr)*alpha)
			drow[i+1] = clampByte(dg + (fn(float64(srow[i+1]), dg)-dg)*alpha)
			drow[i+2] = clampByte(db + (fn(float64(srow[i+2]), db)-db)*alpha)
		}
	}
}
