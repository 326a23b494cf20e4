package usecase

import (
	"github.com/bibbank/lenderledger/internal/application/dto"
	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

func toCreditorResponse(c model.Creditor) dto.CreditorResponse {
	return dto.CreditorResponse{
		ID:         c.ID(),
		Name:       c.Name(),
		Email:      c.Email(),
		UniqueCode: c.UniqueCode(),
		PixKey:     c.PixKey(),
		City:       c.City(),
		State:      c.State(),
		CreatedAt:  c.CreatedAt(),
	}
}

func toClientResponse(c model.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:           c.ID(),
		Name:         c.Name(),
		CPF:          c.CPF().String(),
		WhatsApp:     c.WhatsApp().String(),
		Address:      c.Address(),
		City:         c.City(),
		State:        c.State(),
		Observations: c.Observations(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

func toLoanResponse(l model.Loan, insts []model.Installment) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:                   l.ID(),
		ClientID:             l.ClientID(),
		Code:                 l.Code(),
		Title:                l.Title(),
		LoanedValue:          l.LoanedValue(),
		LoanBalance:          l.LoanBalance(),
		InterestRate:         l.InterestRate(),
		InterestModel:        l.InterestModel().String(),
		InstallmentsQuantity: l.InstallmentsQuantity(),
		RecurrencePeriod:     l.Recurrence().String(),
		DailyFineValue:       l.DailyFineValue(),
		Status:               l.Status().String(),
		LoanDate:             l.LoanDate(),
		Description:          l.Description(),
		CreatedAt:            l.CreatedAt(),
		UpdatedAt:            l.UpdatedAt(),
	}
	if len(insts) > 0 {
		resp.Installments = toInstallmentResponses(insts)
	}
	return resp
}

func toInstallmentResponse(i model.Installment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:               i.ID(),
		LoanID:           i.LoanID(),
		Code:             i.Code(),
		DueValue:         i.DueValue(),
		OriginalDueValue: i.OriginalDueValue(),
		PaidValue:        i.PaidValue(),
		Status:           i.Status().String(),
		DueDate:          i.DueDate(),
		DaysLate:         i.DaysLate(),
		TotalFine:        i.TotalFine(),
		PaidAt:           i.PaidAt(),
	}
}

func toInstallmentResponses(insts []model.Installment) []dto.InstallmentResponse {
	out := make([]dto.InstallmentResponse, 0, len(insts))
	for _, i := range insts {
		out = append(out, toInstallmentResponse(i))
	}
	return out
}

func toInstallmentViewResponse(v port.InstallmentView) dto.InstallmentViewResponse {
	return dto.InstallmentViewResponse{
		InstallmentResponse: toInstallmentResponse(v.Installment),
		LoanCode:            v.LoanCode,
		LoanTitle:           v.LoanTitle,
		ClientID:            v.ClientID,
		ClientName:          v.ClientName,
		ClientWhatsApp:      v.ClientWhatsApp,
	}
}

func toAccountResponse(a model.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        a.ID(),
		Name:      a.Name(),
		Balance:   a.Balance(),
		Profit:    a.Profit(),
		CreatedAt: a.CreatedAt(),
	}
}

func toTransactionResponse(t model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                t.ID(),
		AccountID:         t.AccountID(),
		Title:             t.Title(),
		Value:             t.Value(),
		Type:              t.Type().String(),
		Category:          t.Category().String(),
		Date:              t.Date(),
		Description:       t.Description(),
		ExternalReference: t.ExternalReference(),
	}
}
