package voice

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"time"
)

// Service 负责科大讯飞语音识别的客户端配置和 WebSocket 握手签名
type Service struct {
	AppID     string
	APIKey    string
	APISecret string
}

// NewService 构造函数
func NewService(appID, apiKey, apiSecret string) *Service {
	return &Service{AppID: appID, APIKey: apiKey, APISecret: apiSecret}
}

// ClientConfig 返回可以下发给前端的配置。
// 注意：APISecret 绝不下发，签名在服务端生成（见 Signature）。
func (s *Service) ClientConfig() map[string]string {
	return map[string]string{
		"app_id":  s.AppID,
		"api_key": s.APIKey,
	}
}

// Signature 生成 WebSocket 连接签名：signa = base64(HMAC-SHA1(secret, appid+ts))
func (s *Service) Signature() map[string]string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return map[string]string{
		"ts":    ts,
		"signa": s.sign(ts),
	}
}

func (s *Service) sign(ts string) string {
	mac := hmac.New(sha1.New, []byte(s.APISecret))
	mac.Write([]byte(s.AppID + ts))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
