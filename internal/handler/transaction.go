package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/ledger"
	"money-layer/internal/middleware"
	"money-layer/internal/models"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 负责记账、账单和余额接口
type TransactionHandler struct {
	Ledger *ledger.Service
}

func NewTransactionHandler(svc *ledger.Service) *TransactionHandler {
	return &TransactionHandler{Ledger: svc}
}

type lancamentoReq struct {
	Descricao       string          `json:"descricao" binding:"required"`
	Valor           decimal.Decimal `json:"valor"`
	Tipo            string          `json:"tipo" binding:"required"`
	Instituicao     string          `json:"instituicao" binding:"required"`
	Moeda           string          `json:"moeda"`
	FormaPagamento  string          `json:"forma_pagamento" binding:"required"`
	QtdParcelas     *int            `json:"qtd_parcelas"`
	TipoDocumento   string          `json:"tipo_documento" binding:"required"`
	NumeroDocumento *string         `json:"numero_documento"`
	DetalhesFiscais *string         `json:"detalhes_fiscais"`
	DataBase        string          `json:"data_base"`
}

type transactionResp struct {
	ID                   uint      `json:"id"`
	Descricao            string    `json:"descricao"`
	ValorTotal           string    `json:"valor_total"`
	ValorTotalCentavos   int64     `json:"valor_total_centavos"`
	ValorParcela         string    `json:"valor_parcela"`
	ValorParcelaCentavos int64     `json:"valor_parcela_centavos"`
	Tipo                 string    `json:"tipo"`
	Instituicao          string    `json:"instituicao"`
	Moeda                string    `json:"moeda"`
	FormaPagamento       string    `json:"forma_pagamento"`
	ParcelaAtual         int       `json:"parcela_atual"`
	TotalParcelas        int       `json:"total_parcelas"`
	TipoDocumento        string    `json:"tipo_documento"`
	NumeroDocumento      *string   `json:"numero_documento"`
	DetalhesFiscais      *string   `json:"detalhes_fiscais"`
	DataEmissao          time.Time `json:"data_emissao"`
	DataVencimento       time.Time `json:"data_vencimento"`
	DonoID               uint      `json:"dono_id"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:                   t.ID,
		Descricao:            t.Description,
		ValorTotal:           util.FormatCents(t.TotalCents),
		ValorTotalCentavos:   t.TotalCents,
		ValorParcela:         util.FormatCents(t.InstallmentCents),
		ValorParcelaCentavos: t.InstallmentCents,
		Tipo:                 t.Kind,
		Instituicao:          t.Institution,
		Moeda:                t.Currency,
		FormaPagamento:       t.PaymentMethod,
		ParcelaAtual:         t.InstallmentNumber,
		TotalParcelas:        t.InstallmentCount,
		TipoDocumento:        t.DocumentType,
		NumeroDocumento:      t.DocumentNumber,
		DetalhesFiscais:      t.FiscalDetails,
		DataEmissao:          t.IssuedAt,
		DataVencimento:       t.DueAt,
		DonoID:               t.OwnerID,
	}
}

func toTransactionResps(rows []models.Transaction) []transactionResp {
	items := make([]transactionResp, 0, len(rows))
	for i := range rows {
		items = append(items, toTransactionResp(&rows[i]))
	}
	return items
}

// Lancar 记一笔账，按分期拆成多条记录
func (h *TransactionHandler) Lancar(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req lancamentoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "parâmetros inválidos: "+err.Error())
		return
	}

	base, err := ledger.ParseBaseDate(req.DataBase, h.Ledger.Now())
	if err != nil {
		util.Fail(c, err)
		return
	}
	count := 1
	if req.QtdParcelas != nil {
		count = *req.QtdParcelas
	}

	rows, err := h.Ledger.Create(c.Request.Context(), user, ledger.Entry{
		Description:    req.Descricao,
		Total:          req.Valor,
		Kind:           strings.ToLower(strings.TrimSpace(req.Tipo)),
		Institution:    req.Instituicao,
		Currency:       req.Moeda,
		PaymentMethod:  req.FormaPagamento,
		Installments:   count,
		DocumentType:   req.TipoDocumento,
		DocumentNumber: req.NumeroDocumento,
		FiscalDetails:  req.DetalhesFiscais,
		BaseDate:       base,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Created(c, util.Response{
		"mensagem":   "Salvo!",
		"transacoes": toTransactionResps(rows),
	})
}

// parseFilter 解析 instituicao / data_inicio / data_fim（格式 YYYY-MM-DD）
func parseFilter(c *gin.Context) (ledger.Filter, error) {
	f := ledger.Filter{Institution: strings.TrimSpace(c.Query("instituicao"))}
	if s := c.Query("data_inicio"); s != "" {
		if err := util.ValidateDate(s); err != nil {
			return f, apperr.Invalid("data_inicio: %v", err)
		}
		f.From, _ = time.Parse("2006-01-02", s)
	}
	if s := c.Query("data_fim"); s != "" {
		if err := util.ValidateDate(s); err != nil {
			return f, apperr.Invalid("data_fim: %v", err)
		}
		f.To, _ = time.Parse("2006-01-02", s)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apperr.Invalid("data_fim is before data_inicio")
	}
	return f, nil
}

// Extrato 列出当前用户的账目，到期日倒序
func (h *TransactionHandler) Extrato(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	rows, err := h.Ledger.List(c.Request.Context(), middleware.CurrentUser(c), f)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{
		"items": toTransactionResps(rows),
		"total": len(rows),
	})
}

// Saldo 汇总当前用户的收入和支出
func (h *TransactionHandler) Saldo(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	b, err := h.Ledger.Balance(c.Request.Context(), middleware.CurrentUser(c), f)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{
		"entradas":             util.FormatCents(b.IncomeCents),
		"saidas":               util.FormatCents(b.ExpenseCents),
		"saldo_final":          util.FormatCents(b.NetCents),
		"entradas_centavos":    b.IncomeCents,
		"saidas_centavos":      b.ExpenseCents,
		"saldo_final_centavos": b.NetCents,
		"usuario_funcao":       b.Role,
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

// Get 获取当前用户的一条账目
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	t, err := h.Ledger.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{"transacao": toTransactionResp(t)})
}

// Delete 按配置的删除策略删除账目
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if err := h.Ledger.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{"mensagem": "Apagado!"})
}
