package handler

import (
	"net/http"
	"strings"

	"money-layer/internal/access"
	"money-layer/internal/apperr"
	"money-layer/internal/middleware"
	"money-layer/internal/models"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责当前用户信息和管理员建号
type UserHandler struct {
	Users      *store.UserStore
	Access     *access.Controller
	BcryptCost int
}

func NewUserHandler(users *store.UserStore, ac *access.Controller, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, Access: ac, BcryptCost: bcryptCost}
}

type createStaffReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Funcao   string `json:"funcao"`
}

func userView(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"funcao":     u.Role,
		"provedor":   u.Provider,
		"created_at": u.CreatedAt,
	}
}

// GetMe 返回当前登录用户
func (h *UserHandler) GetMe(c *gin.Context) {
	util.Success(c, util.Response{"usuario": userView(middleware.CurrentUser(c))})
}

// CreateStaff 管理员为员工创建账号
func (h *UserHandler) CreateStaff(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if err := h.Access.CanCreateStaff(actor); err != nil {
		util.Fail(c, err)
		return
	}

	var req createStaffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos")
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Funcao))
	switch role {
	case "":
		role = models.RoleFuncionario
	case models.RoleAdmin, models.RoleUser, models.RoleFuncionario:
	default:
		util.Fail(c, apperr.Invalid("funcao must be %q, %q or %q", models.RoleAdmin, models.RoleUser, models.RoleFuncionario))
		return
	}

	u, err := createAccount(c, h.Users, h.BcryptCost, req.Username, req.Password, role)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Created(c, util.Response{
		"mensagem": "Usuário " + u.Username + " criado como " + u.Role + "!",
		"usuario":  userView(u),
	})
}
