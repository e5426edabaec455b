package remote

import (
	"context"
)

const receiptEndpoint = "produtos/recebimentonfe/"

// SourceEntity is one goods-receipt record from the source system listing.
// The robot only processes entities carrying both a remote order reference
// and a source-record id.
type SourceEntity struct {
	RemoteOrderID  int64
	SourceRecordID int64
	VendorRef      int64
	Amount         float64
	DueDate        string
	InvoiceNumber  string
}

// ListSourceEntities pages through the source system's goods-receipt listing.
// An empty result signals the end of the stream.
func (c *httpClient) ListSourceEntities(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]SourceEntity, error) {
	params := map[string]interface{}{
		"nPagina":       page,
		"nRegPorPagina": pageSize,
	}
	for k, v := range filters {
		params[k] = v
	}

	data, err := c.call(ctx, receiptEndpoint, "ListarRecebimentos", params)
	if err != nil {
		return nil, err
	}

	raw, ok := data["recebimentos"].([]interface{})
	if !ok {
		raw, _ = data["listaRecebimentos"].([]interface{})
	}

	entities := make([]SourceEntity, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		vendorRef := asInt64(m["nIdFornecedor"])
		if vendorRef == 0 {
			vendorRef = asInt64(m["codigo_cliente_fornecedor"])
		}
		dueDate := asString(m["dVencimento"])
		if dueDate == "" {
			dueDate = asString(m["dEmissaoNFe"])
		}

		entities = append(entities, SourceEntity{
			RemoteOrderID:  asInt64(m["nCodPedido"]),
			SourceRecordID: asInt64(m["nIdReceb"]),
			VendorRef:      vendorRef,
			Amount:         asFloat64(m["nValorNFe"]),
			DueDate:        dueDate,
			InvoiceNumber:  asString(m["cNumeroNFe"]),
		})
	}

	return entities, nil
}
