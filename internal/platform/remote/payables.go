package remote

import (
	"context"
	"fmt"
)

const payableEndpoint = "financas/contapagar/"

// PayablePayload carries the fields needed to create a payable. The
// IntegrationCode makes the remote call idempotent on the remote side.
type PayablePayload struct {
	IntegrationCode string
	VendorRef       int64
	Amount          float64
	DueDate         string
	DocumentNumber  string
}

// CreatePayable creates a payable entry and returns the remote payable id
func (c *httpClient) CreatePayable(ctx context.Context, payload PayablePayload) (int64, error) {
	data, err := c.call(ctx, payableEndpoint, "IncluirContaPagar", map[string]interface{}{
		"codigo_lancamento_integracao": payload.IntegrationCode,
		"codigo_cliente_fornecedor":    payload.VendorRef,
		"valor_documento":              payload.Amount,
		"data_vencimento":              payload.DueDate,
		"numero_documento":             payload.DocumentNumber,
	})
	if err != nil {
		return 0, err
	}

	remotePayableID := asInt64(data["codigo_lancamento_omie"])
	if remotePayableID == 0 {
		return 0, &Fault{Call: "IncluirContaPagar", Message: fmt.Sprintf("response missing codigo_lancamento_omie: %v", data)}
	}

	return remotePayableID, nil
}

// QueryPayable fetches the raw remote state of a payable entry
func (c *httpClient) QueryPayable(ctx context.Context, remotePayableID int64) (map[string]interface{}, error) {
	return c.call(ctx, payableEndpoint, "ConsultarContaPagar", map[string]interface{}{
		"nCodTitulo": remotePayableID,
	})
}
