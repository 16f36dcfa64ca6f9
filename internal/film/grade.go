package film

import (
	"image"
	"math"
)

// gradeParams はカラーグレード1段分のパラメータ
type gradeParams struct {
	HueDegrees float64 // 色相回転（度）
	Saturation float64 // 彩度倍率（1.0で変化なし）
	Brightness float64 // 明度倍率（1.0で変化なし）
	Contrast   float64 // コントラスト倍率（1.0で変化なし）
	Sepia      float64 // セピア混合率（0.0〜1.0）
}

// グレードパラメータは (青プロファイルかどうか, フラッシュ) の4組に固定されている
// 青以外のプロファイルはすべてニュートラル係数を共有する
var (
	gradeNeutral      = gradeParams{HueDegrees: -5, Saturation: 1.10, Brightness: 1.05, Contrast: 1.08, Sepia: 0.12}
	gradeNeutralFlash = gradeParams{HueDegrees: -5, Saturation: 1.15, Brightness: 1.18, Contrast: 1.12, Sepia: 0.10}
	gradeBlue         = gradeParams{HueDegrees: 8, Saturation: 0.85, Brightness: 1.02, Contrast: 1.10, Sepia: 0.04}
	gradeBlueFlash    = gradeParams{HueDegrees: 8, Saturation: 0.90, Brightness: 1.15, Contrast: 1.15, Sepia: 0.04}
)

// gradeFor は (プロファイル, フラッシュ) に対応するグレードパラメータを返す
func gradeFor(id ProfileID, flash bool) gradeParams {
	isBlue := id == ProfileBlue
	switch {
	case isBlue && flash:
		return gradeBlueFlash
	case isBlue:
		return gradeBlue
	case flash:
		return gradeNeutralFlash
	default:
		return gradeNeutral
	}
}

// colorMatrix は4x5のカラー変換行列（行優先）
//
//	[R']   [m0  m1  m2  m3  m4 ]   [R]
//	[G'] = [m5  m6  m7  m8  m9 ] * [G]
//	[B']   [m10 m11 m12 m13 m14]   [B]
//	[A']   [m15 m16 m17 m18 m19]   [A]
//	                               [1]
//
// 第5列はバイアス項。チャンネル値は0〜255の範囲で変換し、最後にクランプする
type colorMatrix [20]float64

// identityMatrix は恒等変換を返す
func identityMatrix() colorMatrix {
	return colorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// compose は m を適用した後に n を適用する合成行列を返す
func (m colorMatrix) compose(n colorMatrix) colorMatrix {
	var out colorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += n[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				sum += n[row*5+4]
			}
			out[row*5+col] = sum
		}
	}
	return out
}

// brightnessMatrix は明度倍率の行列を返す
func brightnessMatrix(factor float64) colorMatrix {
	return colorMatrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// contrastMatrix はコントラスト倍率の行列を返す
// (color - 128) * factor + 128 に相当する
func contrastMatrix(factor float64) colorMatrix {
	offset := 128 * (1 - factor)
	return colorMatrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// saturationMatrix は彩度倍率の行列を返す（Rec.709の輝度係数を使用）
func saturationMatrix(factor float64) colorMatrix {
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)

	inv := 1 - factor
	return colorMatrix{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// hueRotateMatrix は色相回転の行列を返す（YIQ空間での回転近似）
func hueRotateMatrix(degrees float64) colorMatrix {
	rad := degrees * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	const (
		lumR = 0.213
		lumG = 0.715
		lumB = 0.072
	)

	return colorMatrix{
		lumR + cos*(1-lumR) + sin*(-lumR), lumG + cos*(-lumG) + sin*(-lumG), lumB + cos*(-lumB) + sin*(1-lumB), 0, 0,
		lumR + cos*(-lumR) + sin*0.143, lumG + cos*(1-lumG) + sin*0.140, lumB + cos*(-lumB) + sin*(-0.283), 0, 0,
		lumR + cos*(-lumR) + sin*(-(1-lumR)), lumG + cos*(-lumG) + sin*lumG, lumB + cos*(1-lumB) + sin*lumB, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// sepiaMatrix はセピア変換を amount (0〜1) だけ混合した行列を返す
func sepiaMatrix(amount float64) colorMatrix {
	inv := 1 - amount
	return colorMatrix{
		0.393*amount + inv, 0.769 * amount, 0.189 * amount, 0, 0,
		0.349 * amount, 0.686*amount + inv, 0.168 * amount, 0, 0,
		0.272 * amount, 0.534 * amount, 0.131*amount + inv, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// matrixFor はグレードパラメータ全体をひとつの合成行列にまとめる
// 適用順は 色相回転 → 彩度 → 明度 → コントラスト → セピア
func matrixFor(p gradeParams) colorMatrix {
	m := identityMatrix()
	m = m.compose(hueRotateMatrix(p.HueDegrees))
	m = m.compose(saturationMatrix(p.Saturation))
	m = m.compose(brightnessMatrix(p.Brightness))
	m = m.compose(contrastMatrix(p.Contrast))
	m = m.compose(sepiaMatrix(p.Sepia))
	return m
}

// applyMatrix は画像の全ピクセルにカラー変換行列を適用する（アルファは不変）
func applyMatrix(img *image.NRGBA, m colorMatrix) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			i := x * 4
			r := float64(row[i])
			g := float64(row[i+1])
			b := float64(row[i+2])

			nr := m[0]*r + m[1]*g + m[2]*b + m[4]
			ng := m[5]*r + m[6]*g + m[7]*b + m[9]
			nb := m[10]*r + m[11]*g + m[12]*b + m[14]

			row[i] = clampByte(nr)
			row[i+1] = clampByte(ng)
			row[i+2] = clampByte(nb)
		}
	}
}

// clampByte は浮動小数値を0〜255のバイト値に丸める
func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
