package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// ExportCSV renders the monthly report as the CSV handed to the
// community administration. Layout mirrors the printed report: header
// block with the totals, blank line, then the top-items table.
func (s *Service) ExportCSV(ctx context.Context, month string) ([]byte, string, error) {
	report, err := s.Monthly(ctx, month)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Relatório Mensal da Dispensa"},
		{fmt.Sprintf("Mês: %s", report.MonthLabel)},
		{fmt.Sprintf("Total de Retiradas: %d", report.TotalWithdrawals)},
		{fmt.Sprintf("Quantidade Total Retirada: %s", formatQuantity(report.TotalQuantity))},
		{fmt.Sprintf("Usuários Únicos: %d", report.UniqueUsers)},
		{""},
		{"Itens Mais Retirados"},
		{"Item", "Quantidade Total", "Número de Retiradas"},
	}
	for _, item := range report.TopItems {
		records = append(records, []string{
			item.ItemName,
			formatQuantity(item.TotalQuantity),
			strconv.Itoa(item.WithdrawalCount),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("relatorio-dispensa-%s.csv", report.Month)
	return buf.Bytes(), filename, nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
