// Package camera フロントカメラからのフレーム取得を担う
//
// # 責務
// - フロントカメラデバイスの検出とオープン
// - 現在フレームの取得（現像パイプラインへの入力）
// - ライブプレビュー用のMJPEGフレームストリーミング
// - デバイス不在・権限なし状態の縮退表現
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - キャプチャ時に最新の1フレームを取得したい
// - ライブビューをMJPEGとして配信したい
//
// # 仕様
// - FrameSource: 単一フロントカメラの不透明なハンドル
// - ハンドルが得られない場合は ErrPermissionDenied（致命的エラーではなく縮退状態）
// - V4L2 Source: ffmpeg経由でのフレーム取得とストリーミング
// - Thread-safe な操作をサポート
//
// # 前提要件
//   - v4l-utils: デバイス確認とカメラ名の取得に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: フレームキャプチャとストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
