package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

const SlackRetryHeader = "X-Slack-Retry-Num"

// maxSlackBody bounds what is buffered for signature checks.
const maxSlackBody = 1 << 20

// VerifySlackSignature checks the v0 request signature against the signing
// secret and puts the body back for the handler. With no secret configured
// every request passes, which is only meant for local development.
func VerifySlackSignature(signingSecret string) gin.HandlerFunc {
	if signingSecret == "" {
		slog.Warn("SLACK_SIGNING_SECRET not set, slack request signatures are not verified")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlackBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		verifier, err := slack.NewSecretsVerifier(c.Request.Header, signingSecret)
		if err != nil {
			slog.WarnContext(ctx, "slack signature headers invalid", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		if _, err := verifier.Write(body); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "signature check failed"})
			return
		}
		if err := verifier.Ensure(); err != nil {
			slog.WarnContext(ctx, "slack signature mismatch", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
