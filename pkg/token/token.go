package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// secretKey 存储服务器在启动时生成的32字节密钥。
// 密钥只存在于内存中，重启后旧签名全部失效。
var secretKey []byte

// DeliveryPayload 定义了需要被签名的数据结构。
// 它随 /puzzles/next 的响应下发，并在 /deliveries 请求中被原样带回。
type DeliveryPayload struct {
	DeliveryID string `json:"d"`
	UserID     string `json:"u"`
	PuzzleID   uint   `json:"p"`
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// GenerateDeliverySignature 为一个给定的DeliveryPayload生成HMAC签名。
// 返回签名的Base64编码字符串。
func GenerateDeliverySignature(payload DeliveryPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("无法序列化Token payload")
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	signature := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(signature), nil
}

// ValidateDeliverySignature 验证一个给定的payload和签名是否匹配。
func ValidateDeliverySignature(payload DeliveryPayload, signatureB64 string) bool {
	// 重新序列化payload，确保与签名时的数据格式完全一致
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	expectedSignature := mac.Sum(nil)

	actualSignature, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}

	// 时间恒定的比较，防止时序攻击
	return hmac.Equal(expectedSignature, actualSignature)
}
