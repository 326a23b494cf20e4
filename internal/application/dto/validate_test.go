package dto_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/apperror"
)

func TestValidate_Cents(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{
			name: "whole cents",
			req:  dto.AmortizeLoanRequest{CreditorID: "c", LoanID: "l", AccountID: "a", Amount: decimal.RequireFromString("100.50")},
		},
		{
			name: "trailing zeros",
			req:  dto.AmortizeLoanRequest{CreditorID: "c", LoanID: "l", AccountID: "a", Amount: decimal.RequireFromString("100.500")},
		},
		{
			name:    "sub-cent amount",
			req:     dto.AmortizeLoanRequest{CreditorID: "c", LoanID: "l", AccountID: "a", Amount: decimal.RequireFromString("100.505")},
			wantErr: "amount:cents",
		},
		{
			name: "null principal is skipped",
			req:  dto.UpdateLoanRequest{CreditorID: "c", LoanID: "l"},
		},
		{
			name:    "sub-cent principal edit",
			req:     dto.UpdateLoanRequest{CreditorID: "c", LoanID: "l", LoanedValue: decimal.NewNullDecimal(decimal.RequireFromString("0.001"))},
			wantErr: "loaned_value:cents",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dto.Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
