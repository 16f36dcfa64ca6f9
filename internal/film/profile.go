package film

import (
	"fmt"
	"image/color"
	"math/rand/v2"
)

// ProfileID はフィルムプロファイルの列挙識別子
// 配列インデックスでの選択はバグの温床になるため、明示的なIDで参照する
type ProfileID string

const (
	// ProfileNormal は標準の色味
	ProfileNormal ProfileID = "normal"
	// ProfileBlue は青みがかった色味（専用のグレードとキャストを持つ）
	ProfileBlue ProfileID = "blue"
	// ProfilePink は桃色のオーバーレイを乗せる色味
	ProfilePink ProfileID = "pink"
	// ProfileGreen は緑色のオーバーレイを乗せる色味
	ProfileGreen ProfileID = "green"
)

// StyleProfile はフィルムの色味プリセットを表す（読み取り専用の参照データ）
type StyleProfile struct {
	ID       ProfileID    // プロファイル識別子
	Name     string       // 表示名
	Swatch   color.NRGBA  // UIスウォッチの色
	Vignette color.NRGBA  // ビネットの色（Aが最大不透明度）
	Overlay  *color.NRGBA // オーバーレイの色（Aが不透明度、nilならオーバーレイなし）
}

// profiles は固定順序のプロファイル一覧
var profiles = []StyleProfile{
	{
		ID:       ProfileNormal,
		Name:     "ノーマル",
		Swatch:   color.NRGBA{R: 0xF5, G: 0xF0, B: 0xE8, A: 0xFF},
		Vignette: color.NRGBA{R: 0x2A, G: 0x22, B: 0x1E, A: 0xB4},
	},
	{
		ID:       ProfileBlue,
		Name:     "ブルー",
		Swatch:   color.NRGBA{R: 0x7D, G: 0xA3, B: 0xE0, A: 0xFF},
		Vignette: color.NRGBA{R: 0x10, G: 0x1C, B: 0x3C, A: 0xC8},
	},
	{
		ID:       ProfilePink,
		Name:     "ピンク",
		Swatch:   color.NRGBA{R: 0xEF, G: 0xA8, B: 0xC0, A: 0xFF},
		Vignette: color.NRGBA{R: 0x38, G: 0x1E, B: 0x28, A: 0xB4},
		Overlay:  &color.NRGBA{R: 0xF0, G: 0xA0, B: 0xB8, A: 0x30},
	},
	{
		ID:       ProfileGreen,
		Name:     "グリーン",
		Swatch:   color.NRGBA{R: 0x8C, G: 0xBE, B: 0x96, A: 0xFF},
		Vignette: color.NRGBA{R: 0x16, G: 0x2C, B: 0x1E, A: 0xB4},
		Overlay:  &color.NRGBA{R: 0x96, G: 0xC8, B: 0xA0, A: 0x30},
	},
}

// Profiles は固定順序のプロファイル一覧を返す
func Profiles() []StyleProfile {
	// 呼び出し側の変更から守るためコピーを返す
	result := make([]StyleProfile, len(profiles))
	copy(result, profiles)
	return result
}

// ProfileByID は指定されたIDのプロファイルを取得する
func ProfileByID(id ProfileID) (StyleProfile, error) {
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return StyleProfile{}, fmt.Errorf("未知のプロファイルID: %s", id)
}

// frameColorEntry は台紙色パレットの1エントリ
type frameColorEntry struct {
	Color  color.NRGBA
	Weight int
}

// frameColorPalette はカード台紙色の重み付きパレット
// 白系が出やすく、色付きはたまに混ざる
var frameColorPalette = []frameColorEntry{
	{Color: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, Weight: 6}, // 白
	{Color: color.NRGBA{R: 0xFA, G: 0xF3, B: 0xE3, A: 0xFF}, Weight: 3}, // クリーム
	{Color: color.NRGBA{R: 0xF7, G: 0xD9, B: 0xE3, A: 0xFF}, Weight: 1}, // 薄桃
	{Color: color.NRGBA{R: 0xD8, G: 0xE4, B: 0xF5, A: 0xFF}, Weight: 1}, // 薄青
}

// RandomFrameColor は重み付きパレットから台紙色を1色抽選する
func RandomFrameColor() color.NRGBA {
	total := 0
	for _, e := range frameColorPalette {
		total += e.Weight
	}

	n := rand.IntN(total)
	for _, e := range frameColorPalette {
		n -= e.Weight
		if n < 0 {
			return e.Color
		}
	}

	// 到達しないが、念のため先頭を返す
	return frameColorPalette[0].Color
}
