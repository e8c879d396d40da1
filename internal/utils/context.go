package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type CustomContext struct {
	AppSource  string
	SessionKey string
	FormID     string
	RequestID  string
}

type customContextKeyType string

const customContextKey customContextKeyType = "CUSTOM_CONTEXT"

// SessionKeyGinKey is where the session middleware stores the visitor session key.
const SessionKeyGinKey = "SessionKey"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource:  appSource,
		SessionKey: c.GetString(SessionKeyGinKey),
		FormID:     c.Param("formId"),
		RequestID:  c.GetHeader("X-Request-Id"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetSessionKeyFromContext(ctx context.Context) string {
	return GetContext(ctx).SessionKey
}

func GetFormIDFromContext(ctx context.Context) string {
	return GetContext(ctx).FormID
}

func SetSessionKeyInContext(ctx context.Context, sessionKey string) context.Context {
	customContext := *GetContext(ctx)
	customContext.SessionKey = sessionKey
	return WithCustomContext(ctx, &customContext)
}

func SetFormIDInContext(ctx context.Context, formID string) context.Context {
	customContext := *GetContext(ctx)
	customContext.FormID = formID
	return WithCustomContext(ctx, &customContext)
}
