// Package surface キャンバスに置かれたカードの管理と操作を担う
//
// # 責務
// - 配置済みカード（ManipulableItem）の順序付きコレクション管理
// - 選択状態（プロセス全体で最大1枚）の管理
// - ドラッグ・回転・リサイズのジェスチャー状態機械
// - 描画順（挿入順＋選択カード最前面）の導出
//
// # 仕様
// - カードの変形フィールドを書き換えるのはジェスチャーエンジンのみ
// - 同時にアクティブにできるジェスチャーはプロセス全体で1つ
// - 拡大率は常に [ScaleMin, ScaleMax] の範囲に収まる
// - zインデックスは保存せず、参照時に選択状態から導出する
// - ポインターアップはどこで発生してもジェスチャーを終了させる
package surface
