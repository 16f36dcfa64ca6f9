// Package server は、HTTPサーバーとAPIエンドポイントを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// キャプチャ・ポインター操作・エクスポートのAPI処理を担当します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - キャプチャ/ピックアップ/ポインターイベントのAPI提供
//   - ライブプレビューのMJPEG配信
//   - エクスポートファイルのダウンロード配信
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - カメラ権限がない場合もサーバーは縮退状態で稼働を続ける
//   - ストリーミングは multipart/x-mixed-replace で配信
package server
