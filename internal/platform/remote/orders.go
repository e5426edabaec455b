package remote

import (
	"context"
	"fmt"
)

const orderEndpoint = "produtos/pedidocompra/"

// OrderInfo is the normalized result of querying a purchase order
type OrderInfo struct {
	RemoteOrderID int64
	OrderNumber   string
	Status        string
	TotalAmount   float64
	VendorRef     int64
	IssueDate     string
	DueDate       string
}

// CreateOrder creates a purchase order and returns the remote order id
func (c *httpClient) CreateOrder(ctx context.Context, payload map[string]interface{}) (int64, error) {
	data, err := c.call(ctx, orderEndpoint, "IncluirPedCompra", payload)
	if err != nil {
		return 0, err
	}

	remoteOrderID := asInt64(data["nCodPed"])
	if remoteOrderID == 0 {
		return 0, &Fault{Call: "IncluirPedCompra", Message: fmt.Sprintf("response missing nCodPed: %v", data)}
	}

	return remoteOrderID, nil
}

// QueryOrder fetches the current remote state of a purchase order
func (c *httpClient) QueryOrder(ctx context.Context, remoteOrderID int64) (*OrderInfo, error) {
	data, err := c.call(ctx, orderEndpoint, "ConsultarPedCompra", map[string]interface{}{
		"nCodPed": remoteOrderID,
	})
	if err != nil {
		return nil, err
	}

	dueDate := asString(data["dDataPrevisao"])
	if dueDate == "" {
		dueDate = asString(data["dDataEmissao"])
	}

	return &OrderInfo{
		RemoteOrderID: asInt64(data["nCodPed"]),
		OrderNumber:   asString(data["cNumero"]),
		Status:        asString(data["cStatus"]),
		TotalAmount:   asFloat64(data["nValorTotal"]),
		VendorRef:     asInt64(data["codigo_cliente_fornecedor"]),
		IssueDate:     asString(data["dDataEmissao"]),
		DueDate:       dueDate,
	}, nil
}

// QueryOrderByNumber fetches a purchase order by its human-facing number
func (c *httpClient) QueryOrderByNumber(ctx context.Context, orderNumber string) (*OrderInfo, error) {
	data, err := c.call(ctx, orderEndpoint, "ConsultarPedCompra", map[string]interface{}{
		"cNumero": orderNumber,
	})
	if err != nil {
		return nil, err
	}

	dueDate := asString(data["dDataPrevisao"])
	if dueDate == "" {
		dueDate = asString(data["dDataEmissao"])
	}

	return &OrderInfo{
		RemoteOrderID: asInt64(data["nCodPed"]),
		OrderNumber:   asString(data["cNumero"]),
		Status:        asString(data["cStatus"]),
		TotalAmount:   asFloat64(data["nValorTotal"]),
		VendorRef:     asInt64(data["codigo_cliente_fornecedor"]),
		IssueDate:     asString(data["dDataEmissao"]),
		DueDate:       dueDate,
	}, nil
}

// CloseOrder invokes the account-configured close call with the configured
// target status label and optional item code.
func (c *httpClient) CloseOrder(ctx context.Context, orderNumber, orderItem string) error {
	params := map[string]interface{}{
		"cNumero": orderNumber,
		"cStatus": c.cfg.CloseStatus,
	}
	if orderItem != "" {
		params["cCodItem"] = orderItem
	}

	_, err := c.call(ctx, c.cfg.CloseEndpoint, c.cfg.CloseCall, params)
	return err
}
