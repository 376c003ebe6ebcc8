package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"money-layer/internal/ledger"
	"money-layer/internal/logging"
	"money-layer/internal/middleware"
	"money-layer/internal/models"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 负责导出当前用户的账单
type ExportHandler struct {
	Ledger *ledger.Service
	Log    *logging.Logger
}

func NewExportHandler(svc *ledger.Service, log *logging.Logger) *ExportHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &ExportHandler{Ledger: svc, Log: log.WithComponent(logging.ComponentLedger)}
}

var exportHeaders = []string{
	"id", "data_vencimento", "descricao", "tipo", "instituicao", "forma_pagamento",
	"parcela", "valor_parcela", "moeda", "tipo_documento", "numero_documento",
}

func exportRow(t *models.Transaction) []string {
	doc := ""
	if t.DocumentNumber != nil {
		doc = *t.DocumentNumber
	}
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.DueAt.Format("2006-01-02"),
		t.Description,
		t.Kind,
		t.Institution,
		t.PaymentMethod,
		fmt.Sprintf("%d/%d", t.InstallmentNumber, t.InstallmentCount),
		util.FormatCents(t.InstallmentCents),
		t.Currency,
		t.DocumentType,
		doc,
	}
}

func (h *ExportHandler) load(c *gin.Context) ([]models.Transaction, bool) {
	f, err := parseFilter(c)
	if err != nil {
		util.Fail(c, err)
		return nil, false
	}
	user := middleware.CurrentUser(c)
	rows, err := h.Ledger.List(c.Request.Context(), user, f)
	if err != nil {
		util.Fail(c, err)
		return nil, false
	}
	h.Log.InfoContext(c.Request.Context(), "statement exported",
		logging.FieldOperation, logging.OpExport,
		logging.FieldUserID, user.ID,
		logging.FieldCount, len(rows))
	return rows, true
}

func (h *ExportHandler) attachment(c *gin.Context, contentType, ext string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"extrato_%s.%s\"",
		h.Ledger.Now().Format("20060102"), ext))
}

// ExportCSV 导出 CSV，带 UTF-8 BOM，Excel 打开时重音字符不乱码
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	rows, ok := h.load(c)
	if !ok {
		return
	}

	h.attachment(c, "text/csv; charset=utf-8", "csv")
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeaders)
	for i := range rows {
		_ = w.Write(exportRow(&rows[i]))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.Log.WarnContext(c.Request.Context(), "write csv export", logging.FieldError, err)
	}
}

// ExportXLSX 导出单个工作表的 xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	rows, ok := h.load(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Extrato"
	index, err := f.NewSheet(sheet)
	if err != nil {
		util.Fail(c, fmt.Errorf("create sheet: %w", err))
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, name := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}
	for r := range rows {
		t := &rows[r]
		values := exportRow(t)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			// 金额按数字写入，表格里可以直接求和
			if exportHeaders[col] == "valor_parcela" {
				amount, _ := strconv.ParseFloat(v, 64)
				_ = f.SetCellValue(sheet, cell, amount)
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 40)
	_ = f.SetColWidth(sheet, "E", "F", 18)

	h.attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.Log.WarnContext(c.Request.Context(), "write xlsx export", logging.FieldError, err)
	}
}
