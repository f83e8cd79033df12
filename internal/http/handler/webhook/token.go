package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const TokenHeader = "X-Webhook-Token"

// Signer derives the push token of one connection from a shared secret, so
// a notification can only name the connection its token was issued for.
type Signer struct {
	secret []byte
}

// NewSigner returns nil for an empty secret, which leaves the webhook open.
func NewSigner(secret string) *Signer {
	if secret == "" {
		return nil
	}
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Token(tenantID, connectionID int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strconv.FormatInt(tenantID, 10) + ":" + strconv.FormatInt(connectionID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(tenantID, connectionID int64, token string) bool {
	if token == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(s.Token(tenantID, connectionID)))
}

// TokenHandler hands operators the token to configure in the mail gateway.
type TokenHandler struct {
	signer *Signer
}

func NewTokenHandler(signer *Signer) *TokenHandler {
	return &TokenHandler{signer: signer}
}

func (h *TokenHandler) Issue(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	connectionID, err := strconv.ParseInt(c.Param("connection_id"), 10, 64)
	if err != nil || connectionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection_id"})
		return
	}
	if h.signer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "webhook tokens are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connection_id": connectionID,
		"header":        TokenHeader,
		"token":         h.signer.Token(tenantID, connectionID),
	})
}
