package models

import "time"

// Transaction kinds.
const (
	KindIncome  = "receita"
	KindExpense = "despesa"
)

// Transaction is one installment of a ledger entry.
// Amounts are kept in cents to avoid float drift.
type Transaction struct {
	ID               uint   `gorm:"primaryKey"`
	Description      string `gorm:"column:descricao;size:255;not null"`
	TotalCents       int64  `gorm:"column:valor_total_centavos;not null"`   // 整笔金额（分）
	InstallmentCents int64  `gorm:"column:valor_parcela_centavos;not null"` // 本期金额（分），最后一期包含余数
	Kind             string `gorm:"column:tipo;size:16;index;not null"`
	Institution      string `gorm:"column:instituicao;size:128;index;not null"`
	Currency         string `gorm:"column:moeda;size:8;default:BRL"`
	PaymentMethod    string `gorm:"column:forma_pagamento;size:64;not null"`

	InstallmentNumber int `gorm:"column:parcela_atual;not null;default:1"`
	InstallmentCount  int `gorm:"column:total_parcelas;not null;default:1"`

	DocumentType   string  `gorm:"column:tipo_documento;size:64;not null"`
	DocumentNumber *string `gorm:"column:numero_documento;size:128"`
	FiscalDetails  *string `gorm:"column:detalhes_fiscais;size:512"`

	IssuedAt time.Time `gorm:"column:data_emissao;not null"`
	DueAt    time.Time `gorm:"column:data_vencimento;index;not null"` // UTC 存储

	OwnerID uint `gorm:"column:dono_id;index;not null"`

	CreatedAt time.Time
}

func (Transaction) TableName() string { return "transacoes" }
