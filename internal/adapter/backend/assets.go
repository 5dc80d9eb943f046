package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// List retrieves every asset and buckets them by category and market
func (c *Client) List(ctx context.Context) (domain.Holdings, error) {
	var records []WireAsset
	if err := c.do(ctx, http.MethodGet, "/api/assets", nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	h := domain.NewHoldings()
	for _, rec := range records {
		asset, err := ToDomain(rec)
		if err != nil {
			logger.FromContext(ctx).Warn("Skipping asset with unknown type", "id", rec.ID, "type", rec.Type)
			continue
		}
		h.Add(asset)
	}
	return h, nil
}

// Create persists a new asset and returns the server identifier
func (c *Client) Create(ctx context.Context, asset domain.Asset) (string, error) {
	rec, err := FromDomain(asset)
	if err != nil {
		return "", err
	}

	var created WireAsset
	if err := c.do(ctx, http.MethodPost, "/api/assets", rec, &created); err != nil {
		return "", fmt.Errorf("failed to create asset: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("failed to create asset: backend returned no id")
	}
	return string(created.ID), nil
}

// Update persists changes to an already saved asset
func (c *Client) Update(ctx context.Context, asset domain.Asset) error {
	dbID := asset.Base().DBID
	if dbID == "" {
		return fmt.Errorf("cannot update unsaved asset %q", asset.Base().ID)
	}
	rec, err := FromDomain(asset)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/api/assets/"+url.PathEscape(dbID), rec, nil); err != nil {
		return fmt.Errorf("failed to update asset %s: %w", dbID, err)
	}
	return nil
}

// Delete removes a saved asset
func (c *Client) Delete(ctx context.Context, dbID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/assets/"+url.PathEscape(dbID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", dbID, err)
	}
	return nil
}

// UpdatePrices asks the backend to refresh stock prices
func (c *Client) UpdatePrices(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/assets/update-prices", nil, nil); err != nil {
		return fmt.Errorf("failed to update prices: %w", err)
	}
	return nil
}

type uploadResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CreatedCount int    `json:"created_count"`
}

// UploadStatement sends a document for server-side asset extraction
func (c *Client) UploadStatement(ctx context.Context, upload domain.StatementUpload) (*domain.StatementResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", upload.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, upload.File); err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	if err := mw.WriteField("asset_type", WireType(upload.AssetType)); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.WriteField("market", string(upload.Market)); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/assets/upload-pdf", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp uploadResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to upload statement: %w", err)
	}
	return &domain.StatementResult{
		Success:      resp.Success,
		Message:      resp.Message,
		CreatedCount: resp.CreatedCount,
	}, nil
}
