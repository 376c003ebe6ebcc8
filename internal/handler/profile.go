package handler

import (
	"net/http"
	"strings"

	"money-layer/internal/access"
	"money-layer/internal/apperr"
	"money-layer/internal/auth"
	"money-layer/internal/middleware"
	"money-layer/internal/models"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
)

// ProfileHandler 负责个人资料和修改密码
type ProfileHandler struct {
	Users      *store.UserStore
	Access     *access.Controller
	Auth       *auth.Resolver
	BcryptCost int
}

func NewProfileHandler(users *store.UserStore, ac *access.Controller, resolver *auth.Resolver, bcryptCost int) *ProfileHandler {
	return &ProfileHandler{Users: users, Access: ac, Auth: resolver, BcryptCost: bcryptCost}
}

// UpdateProfileReq 整体覆盖资料字段，未传的字段会被清空
type UpdateProfileReq struct {
	NomeEmpresa      *string `json:"nome_empresa"`
	CnpjCpf          *string `json:"cnpj_cpf"`
	EmailContato     *string `json:"email_contato"`
	Telefone         *string `json:"telefone"`
	EnderecoCompleto *string `json:"endereco_completo"`
}

// ChangePasswordReq 修改密码请求体
type ChangePasswordReq struct {
	OldPassword string `json:"senha_atual" binding:"required"`
	NewPassword string `json:"nova_senha" binding:"required"`
}

func profileView(u *models.User) util.Response {
	return util.Response{
		"id":                u.ID,
		"username":          u.Username,
		"funcao":            u.Role,
		"provedor":          u.Provider,
		"nome_empresa":      u.NomeEmpresa,
		"cnpj_cpf":          u.CnpjCpf,
		"email_contato":     u.EmailContato,
		"telefone":          u.Telefone,
		"endereco_completo": u.EnderecoCompleto,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// GetProfile 获取当前用户资料
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	u, err := h.Users.FindByID(c.Request.Context(), user.ID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{"perfil": profileView(u)})
}

// UpdateProfile 更新当前用户资料
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.Access.CanUpdateProfile(user, user.ID); err != nil {
		util.Fail(c, err)
		return
	}

	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}

	u, err := h.Users.UpdateProfile(c.Request.Context(), user.ID, store.Profile{
		NomeEmpresa:      trimmed(req.NomeEmpresa),
		CnpjCpf:          trimmed(req.CnpjCpf),
		EmailContato:     trimmed(req.EmailContato),
		Telefone:         trimmed(req.Telefone),
		EnderecoCompleto: trimmed(req.EnderecoCompleto),
	})
	if err != nil {
		util.Fail(c, err)
		return
	}
	h.Auth.Forget(c.Request.Context(), u.Username)

	util.Success(c, util.Response{
		"mensagem": "Perfil atualizado!",
		"perfil":   profileView(u),
	})
}

// ChangePassword 校验旧密码后修改密码（仅本地账号）
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}
	if err := util.ValidatePassword(req.NewPassword); err != nil {
		util.Fail(c, apperr.Invalid("%v", err))
		return
	}

	// 缓存里的用户没有密码哈希，必须查库
	u, err := h.Users.FindByID(c.Request.Context(), user.ID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if u.Provider != models.ProviderLocal {
		util.Fail(c, apperr.Invalid("accounts signed in with %s have no password", u.Provider))
		return
	}
	if !util.CheckPassword(req.OldPassword, u.PasswordHash) {
		util.Fail(c, apperr.Invalid("current password does not match"))
		return
	}

	hash, err := util.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if err := h.Users.SetCredentials(c.Request.Context(), u.ID, hash, u.Role); err != nil {
		util.Fail(c, err)
		return
	}
	h.Auth.Forget(c.Request.Context(), u.Username)

	util.Success(c, util.Response{"mensagem": "Senha alterada!"})
}
