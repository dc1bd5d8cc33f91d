package handler

import (
	"travel-planner/internal/config"
	"travel-planner/internal/util"
	"travel-planner/internal/voice"

	"github.com/gin-gonic/gin"
)

// ClientConfigHandler 下发前端需要的第三方 SDK 配置
type ClientConfigHandler struct {
	Voice *voice.Service
	Map   config.MapConfig
}

// NewClientConfigHandler 构造函数
func NewClientConfigHandler(v *voice.Service, m config.MapConfig) *ClientConfigHandler {
	return &ClientConfigHandler{Voice: v, Map: m}
}

// VoiceConfig 语音识别的客户端配置（不含 secret）
func (h *ClientConfigHandler) VoiceConfig(c *gin.Context) {
	cfg := h.Voice.ClientConfig()
	util.Success(c, util.Response{
		"app_id":  cfg["app_id"],
		"api_key": cfg["api_key"],
	})
}

// VoiceSignature 服务端生成的 WebSocket 握手签名
func (h *ClientConfigHandler) VoiceSignature(c *gin.Context) {
	sig := h.Voice.Signature()
	util.Success(c, util.Response{
		"ts":    sig["ts"],
		"signa": sig["signa"],
	})
}

// MapConfig 高德地图 JS API 配置
func (h *ClientConfigHandler) MapConfig(c *gin.Context) {
	util.Success(c, util.Response{
		"amap_key":    h.Map.Key,
		"amap_secret": h.Map.Secret,
	})
}
