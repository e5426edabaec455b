package remote

import (
	"context"
	"encoding/base64"
)

const attachmentEndpoint = "geral/anexo/"

// Attachment is the normalized shape of one remote attachment
type Attachment struct {
	Name      string `json:"name"`
	SourceRef int64  `json:"source_ref"` // Remote attachment id used to fetch content
	Size      int64  `json:"size"`
}

// ListAttachments lists the attachments of an entity. The response may carry
// the list under either of two keys depending on the remote API version.
func (c *httpClient) ListAttachments(ctx context.Context, table string, id int64) ([]Attachment, error) {
	data, err := c.call(ctx, attachmentEndpoint, "ListarAnexo", map[string]interface{}{
		"nPagina":       1,
		"nRegPorPagina": 50,
		"cTabela":       table,
		"nId":           id,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := data["listaAnexos"].([]interface{})
	if !ok {
		raw, _ = data["anexos"].([]interface{})
	}

	attachments := make([]Attachment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		attachments = append(attachments, Attachment{
			Name:      asString(m["cNomeArquivo"]),
			SourceRef: asInt64(m["nIdAnexo"]),
			Size:      attachmentSize(m),
		})
	}

	return attachments, nil
}

// FetchAttachmentContent returns the base64 payload of an attachment. When the
// remote system returns a download link instead of inline content, the link is
// followed and the bytes re-encoded. ErrContentUnavailable is returned when
// neither is present.
func (c *httpClient) FetchAttachmentContent(ctx context.Context, table string, id int64, att Attachment) (string, error) {
	params := map[string]interface{}{
		"cTabela": table,
		"nId":     id,
	}
	if att.SourceRef != 0 {
		params["nIdAnexo"] = att.SourceRef
	}
	if att.Name != "" {
		params["cNomeArquivo"] = att.Name
	}

	data, err := c.call(ctx, attachmentEndpoint, "ObterAnexo", params)
	if err != nil {
		return "", err
	}

	if content := asString(data["cArquivo"]); content != "" {
		return content, nil
	}

	link := asString(data["cLinkDownload"])
	if link == "" {
		return "", ErrContentUnavailable
	}

	raw, err := c.download(ctx, link)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", ErrContentUnavailable
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// AddAttachment uploads a base64 payload as a new attachment on an entity
func (c *httpClient) AddAttachment(ctx context.Context, table string, id int64, name, contentB64, description string) error {
	params := map[string]interface{}{
		"cTabela":      table,
		"nId":          id,
		"cNomeArquivo": name,
		"cArquivo":     contentB64,
	}
	if description != "" {
		params["cDescricao"] = description
	}

	_, err := c.call(ctx, attachmentEndpoint, "IncluirAnexo", params)
	return err
}

// attachmentSize resolves the attachment size defensively across the candidate
// field names the remote API has been observed to use; non-numeric values
// default to 0.
func attachmentSize(raw map[string]interface{}) int64 {
	for _, key := range []string{"nTamanho", "tamanho", "nBytes", "bytes"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if size := asInt64(v); size != 0 {
			return size
		}
	}
	return 0
}
