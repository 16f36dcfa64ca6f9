// Package export カードを単体のJPEGファイルとして書き出す
//
// # 責務
// - 現像済み画像のデコードと高品質な拡大（Catmull-Rom）
// - フレーム色キャンバスへの合成（写真・グラデーション・時刻キャプション）
// - 非同期エンコード（呼び出し側をブロックしない）
//
// # 仕様
// - キャンバスは600×725。写真は540×540で上左右30pxの余白
// - キャプションは撮影時刻(HH:MM)を-1度傾けて下帯の中央に描く
// - デコードに失敗した場合は部分的な出力を残さずErrDecodeFailureを返す
package export
