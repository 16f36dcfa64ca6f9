// Package printer キャプチャから排出・ピックアップまでの一連の流れを担う
//
// # 責務
// - フレーム取得 → 現像 → プリントスロット書き込みの編成
// - プリントスロット（仕掛かり中の1枚）のライフサイクル管理
// - 排出タイマー（1.5秒）とフラッシュ発光タイマー（150ms）の制御
// - ピックアップによるカード生成とキャンバスへの配置
//
// # 仕様
// - スロットに入るのは常に最大1枚。新しいキャプチャは前の1枚を丸ごと置き換える
// - 新しいキャプチャは前の排出タイマーをキャンセルする（後勝ち）
// - 排出タイマー満了後も画像はピックアップされるまでスロットに残る
// - 空のスロットへのピックアップはエラーではなく無操作
package printer
