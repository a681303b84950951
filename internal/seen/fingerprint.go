package seen

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint 由代币地址生成去重指纹。
// 仅做去空白与小写折叠，不做任何域校验；大小写或首尾空白不同的同一地址映射到同一指纹。
func Fingerprint(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	digest := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(digest[:])
}
