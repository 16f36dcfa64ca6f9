// Package film インスタントカメラ風のフィルム現像処理を担う
//
// # 責務
// - 生フレームからスタイライズ済み静止画への変換パイプライン
// - フィルムプロファイル（色味プリセット）の定義と参照
// - カードの台紙色パレット（重み付き抽選）の提供
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - キャプチャした1フレームをチェキ風の静止画に仕上げたい
// - プロファイル一覧やスウォッチ色をUIに提供したい
//
// # 仕様
// - Stylize は純粋関数（粒子ノイズの乱数を除き決定的）
// - 処理段階は固定順序：正方形クロップ → 左右反転 → カラーグレード →
//   フラッシュキャスト → ティントオーバーレイ → ブルーム → ビネット →
//   ブルーキャスト → 粒子ノイズ → JPEGエンコード
// - 後段は前段の結果に対してブレンドするため、順序の入れ替えは不可
// - 失敗時は部分的な画像を返さない
package film
