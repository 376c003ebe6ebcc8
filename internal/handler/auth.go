package handler

import (
	"net/http"
	"strings"

	"money-layer/internal/apperr"
	"money-layer/internal/auth"
	"money-layer/internal/models"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责注册和签发 token
type AuthHandler struct {
	Users      *store.UserStore
	Auth       *auth.Resolver
	BcryptCost int
}

func NewAuthHandler(users *store.UserStore, resolver *auth.Resolver, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		Users:      users,
		Auth:       resolver,
		BcryptCost: bcryptCost,
	}
}

type credentialsReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type googleReq struct {
	Token string `json:"token" binding:"required"`
}

// Signup 注册本地账号，角色固定为 user
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}

	u, err := createAccount(c, h.Users, h.BcryptCost, req.Username, req.Password, models.RoleUser)
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Created(c, util.Response{
		"mensagem": "Usuário criado!",
		"usuario":  userView(u),
	})
}

// Login 用户名+密码换取 bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}

	cred := auth.PasswordCredential{Username: strings.TrimSpace(req.Username), Password: req.Password}
	_, tok, err := h.Auth.Login(c.Request.Context(), cred)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, tokenView(tok))
}

// Google 校验 Google ID token 后签发本地 token，首次登录时自动建号
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}

	_, tok, err := h.Auth.Login(c.Request.Context(), auth.ExternalIdentityToken{Raw: req.Token})
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, tokenView(tok))
}

func tokenView(t auth.Token) util.Response {
	return util.Response{
		"access_token": t.AccessToken,
		"token_type":   t.TokenType,
		"expires_at":   t.ExpiresAt,
	}
}

// createAccount 校验参数并创建本地账号
func createAccount(c *gin.Context, users *store.UserStore, cost int, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := util.ValidateUsername(username); err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, apperr.Invalid("%v", err)
	}

	hash, err := util.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Provider:     models.ProviderLocal,
	}
	if err := users.Create(c.Request.Context(), u); err != nil {
		return nil, err
	}
	return u, nil
}
