package server

import (
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cheki/internal/camera"
	"cheki/internal/config"
	"cheki/internal/export"
	"cheki/internal/film"
	"cheki/internal/printer"
	"cheki/internal/surface"
)

// Handler はAPIエンドポイントの実装を束ねる
type Handler struct {
	config  *config.Config
	printer *printer.Printer
	store   *surface.Store
	engine  *surface.Engine
	encoder *export.Encoder
}

// errorResponse はAPIエラーの共通フォーマット
type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func newError(code, message string) errorResponse {
	return errorResponse{Error: code, Message: message, Timestamp: time.Now()}
}

// hexColor はNRGBA色を"#RRGGBB"形式に変換する
func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// itemResponse はキャンバス上のカード1枚のAPI表現
type itemResponse struct {
	ID              string           `json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	Position        surface.Position `json:"position"`
	RotationDegrees float64          `json:"rotation_degrees"`
	ScaleFactor     float64          `json:"scale_factor"`
	FrameColor      string           `json:"frame_color"`
	Selected        bool             `json:"selected"`
}

func toItemResponse(item *surface.Item, selectedID string) itemResponse {
	return itemResponse{
		ID:              item.ID,
		CreatedAt:       item.CreatedAt,
		Position:        item.Position,
		RotationDegrees: item.RotationDegrees,
		ScaleFactor:     item.ScaleFactor,
		FrameColor:      hexColor(item.FrameColor),
		Selected:        item.ID == selectedID,
	}
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "running",
		"server": gin.H{
			"host": h.config.Server.Host,
			"port": h.config.Server.Port,
		},
		"camera": gin.H{
			"status":     h.printer.SourceStatus(),
			"has_access": h.printer.HasSource(),
		},
		"profile":      h.printer.Profile(),
		"flash":        h.printer.FlashEnabled(),
		"flash_active": h.printer.FlashActive(),
		"slot_filled":  h.printer.Slot() != nil,
		"items":        h.store.Count(),
		"timestamp":    time.Now(),
	})
}

// GetProfiles はフィルムプロファイル一覧取得エンドポイントの実装
func (h *Handler) GetProfiles(c *gin.Context) {
	profiles := film.Profiles()
	list := make([]gin.H, 0, len(profiles))

	active := h.printer.Profile()
	for _, p := range profiles {
		list = append(list, gin.H{
			"id":     p.ID,
			"name":   p.Name,
			"swatch": hexColor(p.Swatch),
			"active": p.ID == active,
		})
	}

	c.JSON(http.StatusOK, gin.H{"profiles": list})
}

// SelectProfile はフィルムプロファイル選択エンドポイントの実装
func (h *Handler) SelectProfile(c *gin.Context) {
	var req struct {
		ID film.ProfileID `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("invalid_request", "プロファイルIDを指定してください"))
		return
	}

	if err := h.printer.SetProfile(req.ID); err != nil {
		c.JSON(http.StatusBadRequest, newError("unknown_profile", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": req.ID})
}

// SetFlash はフラッシュ切り替えエンドポイントの実装
func (h *Handler) SetFlash(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("invalid_request", "リクエストボディが不正です"))
		return
	}

	h.printer.SetFlash(req.Enabled)
	c.JSON(http.StatusOK, gin.H{"flash": req.Enabled})
}

// SetCameraOpen はカメラUIの開閉状態エンドポイントの実装
// 閉じている間はキャプチャを受け付けない
func (h *Handler) SetCameraOpen(c *gin.Context) {
	var req struct {
		Open bool `json:"open"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("invalid_request", "リクエストボディが不正です"))
		return
	}

	h.printer.SetClosed(!req.Open)
	c.JSON(http.StatusOK, gin.H{"open": req.Open})
}

// Capture はキャプチャ実行エンドポイントの実装
func (h *Handler) Capture(c *gin.Context) {
	if err := h.printer.Capture(c.Request.Context()); err != nil {
		if errors.Is(err, printer.ErrCaptureUnavailable) {
			c.JSON(http.StatusServiceUnavailable, newError("capture_unavailable", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, newError("capture_failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, h.slotResponse())
}

// GetSlot はプリントスロット状態取得エンドポイントの実装
func (h *Handler) GetSlot(c *gin.Context) {
	c.JSON(http.StatusOK, h.slotResponse())
}

// slotResponse は現在のスロット状態をAPI表現に変換する
func (h *Handler) slotResponse() gin.H {
	slot := h.printer.Slot()
	if slot == nil {
		return gin.H{"present": false}
	}

	return gin.H{
		"present":    true,
		"ejecting":   slot.Ejecting,
		"profile":    slot.ProfileID,
		"flash":      slot.Flash,
		"created_at": slot.CreatedAt,
	}
}

// GetSlotImage はスロット内の現像済み画像を配信する
func (h *Handler) GetSlotImage(c *gin.Context) {
	slot := h.printer.Slot()
	if slot == nil || slot.Image == nil {
		c.JSON(http.StatusNotFound, newError("slot_empty", "プリントスロットは空です"))
		return
	}

	c.Data(http.StatusOK, "image/jpeg", slot.Image.Data)
}

// Pickup はピックアップ実行エンドポイントの実装
// スロットが空の場合もエラーにはしない
func (h *Handler) Pickup(c *gin.Context) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("invalid_request", "リクエストボディが不正です"))
		return
	}

	item, err := h.printer.Pickup(req.X, req.Y)
	if err != nil {
		c.JSON(http.StatusInternalServerError, newError("pickup_failed", err.Error()))
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, gin.H{"picked": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"picked": true,
		"item":   toItemResponse(item, h.store.SelectedID()),
	})
}

// GetItems はカード一覧取得エンドポイントの実装
// 描画順（選択中のカードが末尾＝最前面）で返す
func (h *Handler) GetItems(c *gin.Context) {
	selectedID := h.store.SelectedID()
	items := h.store.RenderOrder()

	list := make([]itemResponse, 0, len(items))
	for _, item := range items {
		list = append(list, toItemResponse(item, selectedID))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       list,
		"selected_id": selectedID,
	})
}

// DeleteItem はカード削除エンドポイントの実装
func (h *Handler) DeleteItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, newError("item_not_found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetItemImage はカードの現像済み画像を配信する
func (h *Handler) GetItemImage(c *gin.Context) {
	item, found := h.store.Get(c.Param("id"))
	if !found || item.Image == nil {
		c.JSON(http.StatusNotFound, newError("item_not_found", "指定されたカードが見つかりません"))
		return
	}

	c.Data(http.StatusOK, "image/jpeg", item.Image.Data)
}

// ExportItem はカードのエクスポートダウンロードエンドポイントの実装
func (h *Handler) ExportItem(c *gin.Context) {
	item, found := h.store.Get(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, newError("item_not_found", "指定されたカードが見つかりません"))
		return
	}

	// エンコードの完了かクライアント切断を待つ
	select {
	case result := <-h.encoder.Export(c.Request.Context(), item):
		if result.Err != nil {
			if errors.Is(result.Err, export.ErrDecodeFailure) {
				c.JSON(http.StatusUnprocessableEntity, newError("decode_failure", result.Err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, newError("export_failed", result.Err.Error()))
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
		c.Data(http.StatusOK, "image/jpeg", result.Data)

	case <-c.Request.Context().Done():
	}
}

// pointerRequest はポインターイベントの共通リクエスト
type pointerRequest struct {
	Type   string  `json:"type" binding:"required"` // down / move / up
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ItemID string  `json:"item_id"` // downのみ。空なら背景クリック
	Mode   string  `json:"mode"`    // downのみ。drag / rotate / resize
}

// PointerEvent はポインターイベント処理エンドポイントの実装
func (h *Handler) PointerEvent(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("invalid_request", "イベント種別を指定してください"))
		return
	}

	switch req.Type {
	case "down":
		mode := surface.GestureMode(req.Mode)
		if req.Mode == "" {
			mode = surface.GestureDrag
		}

		if err := h.engine.PointerDown(req.ItemID, mode, req.X, req.Y); err != nil {
			if errors.Is(err, surface.ErrGestureInProgress) {
				c.JSON(http.StatusConflict, newError("gesture_in_progress", err.Error()))
				return
			}
			c.JSON(http.StatusBadRequest, newError("pointer_down_failed", err.Error()))
			return
		}

	case "move":
		if err := h.engine.PointerMove(req.X, req.Y); err != nil {
			c.JSON(http.StatusInternalServerError, newError("pointer_move_failed", err.Error()))
			return
		}

	case "up":
		// upは座標によらずジェスチャーを終了する
		h.engine.PointerUp()

	default:
		c.JSON(http.StatusBadRequest, newError("unknown_event", "未知のイベント種別です"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"selected_id": h.store.SelectedID(),
	})
}

// GetCameraStatus はカメラ状態取得エンドポイントの実装
// 権限がない場合も200で縮退状態を返す
func (h *Handler) GetCameraStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     h.printer.SourceStatus(),
		"has_access": h.printer.HasSource(),
	})
}

// GetCameraStream はMJPEGストリーミングエンドポイントの実装
func (h *Handler) GetCameraStream(c *gin.Context) {
	source := h.printer.Source()
	if source == nil {
		c.JSON(http.StatusServiceUnavailable, newError("camera_not_available", "カメラへのアクセスがありません"))
		return
	}

	// カメラがアクティブか確認
	if source.GetStatus() != camera.StatusActive {
		c.JSON(http.StatusServiceUnavailable, newError("camera_not_active", "カメラがアクティブではありません"))
		return
	}

	h.streamMJPEG(c, source)
}

// streamMJPEG はMJPEGストリームを配信する
func (h *Handler) streamMJPEG(c *gin.Context, source camera.FrameSource) {
	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	// レスポンスライターを取得
	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	// フレームチャンネルを取得
	frameChan := source.FrameChannel()

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case frame, ok := <-frameChan:
			if !ok {
				// チャンネルがクローズされた
				return
			}

			// MJPEGフレームを書き込み
			_, err := writer.Write([]byte("--frame\r\n"))
			if err != nil {
				return
			}

			_, err = writer.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			if err != nil {
				return
			}

			_, err = writer.Write(frame)
			if err != nil {
				return
			}

			_, err = writer.Write([]byte("\r\n"))
			if err != nil {
				return
			}

			// バッファをフラッシュ
			flusher.Flush()
		}
	}
}
