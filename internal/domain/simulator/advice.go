package simulator

import "github.com/oksasatya/loan-simulator/internal/domain/entity"

// Advice returns the guidance shown with an application's analysis.
func Advice(status entity.LoanStatus) []string {
	switch status {
	case entity.StatusDenied:
		return []string{
			"Sua solicitação foi negada. Considere reduzir o valor solicitado ou aumentar sua renda declarada.",
			"Verifique se suas despesas mensais estão muito altas em relação à sua renda.",
		}
	case entity.StatusAnalyzing:
		return []string{
			"Sua solicitação está em análise. Mantenha seus dados atualizados e aguarde o retorno.",
			"Se possível, envie comprovantes de renda para agilizar a análise.",
		}
	case entity.StatusApproved:
		return []string{
			"Parabéns! Seu empréstimo foi aprovado.",
			"Mantenha suas finanças organizadas para pagar as parcelas em dia.",
		}
	}
	return []string{"Status desconhecido. Entre em contato com o suporte para mais informações."}
}
