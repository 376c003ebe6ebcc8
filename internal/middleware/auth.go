package middleware

import (
	"context"

	"money-layer/internal/apperr"
	"money-layer/internal/auth"
	"money-layer/internal/models"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
)

// CurrentUserKey 是 gin context 里存当前用户的 key
const CurrentUserKey = "currentUser"

// Resolver 把凭证解析成用户
type Resolver interface {
	Resolve(ctx context.Context, cred auth.Credential) (*models.User, error)
}

// AuthMiddleware 校验 Authorization（Basic 或 Bearer），并在 context 里放入当前用户。
// 下载等无法自定义 Header 的场景可以用 ?token=xxx
func AuthMiddleware(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cred auth.Credential

		if header := c.GetHeader("Authorization"); header != "" {
			parsed, err := auth.ParseAuthorization(header)
			if err != nil {
				util.Fail(c, err)
				c.Abort()
				return
			}
			cred = parsed
		} else if token := c.Query("token"); token != "" {
			cred = auth.BearerToken{Raw: token}
		} else {
			util.Fail(c, apperr.Unauthenticated("missing credentials"))
			c.Abort()
			return
		}

		user, err := r.Resolve(c.Request.Context(), cred)
		if err != nil {
			util.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// CurrentUser 取出 AuthMiddleware 放入的用户，没有则返回 nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
