package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bharadwajkrishnan/finai/internal/adapter/backend"
	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
	"github.com/bharadwajkrishnan/finai/internal/usecase/assistant"
	"github.com/bharadwajkrishnan/finai/internal/usecase/networth"
	"github.com/bharadwajkrishnan/finai/internal/usecase/tracker"
)

// maxUploadSize bounds statement uploads
const maxUploadSize = 10 << 20

// Handler serves the tracker view API
type Handler struct {
	Session   *tracker.Session
	Assistant *assistant.Service
}

// NewHandler creates a new Handler
func NewHandler(session *tracker.Session, assistant *assistant.Service) *Handler {
	return &Handler{Session: session, Assistant: assistant}
}

type categoryView struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	Total    string          `json:"total"`
	Display  string          `json:"display"`
	Included bool            `json:"included"`
}

type marketView struct {
	Market     domain.Market  `json:"market"`
	Currency   string         `json:"currency"`
	Total      string         `json:"total"`
	Display    string         `json:"display"`
	Categories []categoryView `json:"categories"`
}

type netWorthResponse struct {
	Filter  string       `json:"filter"`
	Markets []marketView `json:"markets"`
}

type assetView struct {
	ID       string            `json:"id"`
	DBID     string            `json:"dbId,omitempty"`
	Value    string            `json:"value"`
	Display  string            `json:"display"`
	Selected bool              `json:"selected"`
	Record   backend.WireAsset `json:"record"`
}

type listResponse struct {
	Category    domain.Category `json:"category"`
	Market      domain.Market   `json:"market"`
	AllSelected bool            `json:"allSelected"`
	Assets      []assetView     `json:"assets"`
}

// GetNetWorth returns the net worth of every market with per-category subtotals
func (h *Handler) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	resp := netWorthResponse{Filter: h.Session.Filter()}
	for _, m := range domain.Markets {
		resp.Markets = append(resp.Markets, toMarketView(h.Session.Breakdown(m)))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toMarketView(res *networth.Result) marketView {
	mv := marketView{
		Market:   res.Market,
		Currency: res.Market.CurrencyCode(),
		Total:    res.Total.String(),
		Display:  res.Market.Format(res.Total),
	}
	for _, ct := range res.Categories {
		mv.Categories = append(mv.Categories, categoryView{
			Category: ct.Category,
			Count:    ct.Count,
			Total:    ct.Total.String(),
			Display:  res.Market.Format(ct.Total),
			Included: ct.Included,
		})
	}
	return mv
}

// GetMembers returns the family roster
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	type member struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
	}
	out := []member{}
	for _, m := range h.Session.Members() {
		out = append(out, member{ID: m.ID, Name: m.Name, Relationship: m.Relationship})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetFilter returns the current family filter
func (h *Handler) GetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"value": h.Session.Filter()})
}

// SetFilter changes the family filter
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	h.Session.SetFilter(req.Value)
	h.GetNetWorth(w, r)
}

// Reload fetches every asset from the backend again
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Load(r.Context()); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.GetNetWorth(w, r)
}

// RefreshPrices refreshes stock prices now
func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.RefreshPrices(r.Context()); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.GetNetWorth(w, r)
}

// ListAssets returns the visible list of a bucket: filtered, then ordered
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	selected := make(map[string]bool)
	for _, id := range h.Session.Selected(key) {
		selected[id] = true
	}

	resp := listResponse{
		Category:    key.Category,
		Market:      key.Market,
		AllSelected: h.Session.AreAllSelected(key),
		Assets:      []assetView{},
	}
	for _, a := range h.Session.View(key) {
		rec, err := backend.FromDomain(a)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		rec.ID = backend.FlexID(a.Base().DBID)
		value := networth.Value(a)
		resp.Assets = append(resp.Assets, assetView{
			ID:       a.Base().ID,
			DBID:     a.Base().DBID,
			Value:    value.String(),
			Display:  key.Market.Format(value),
			Selected: selected[a.Base().ID],
			Record:   rec,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeAsset reads a wire record from the body and checks it belongs to the bucket
func decodeAsset(r *http.Request, key domain.BucketKey) (domain.Asset, error) {
	var rec backend.WireAsset
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	if rec.Type == "" {
		rec.Type = backend.WireType(key.Category)
	}
	if rec.Type != backend.WireType(key.Category) {
		return nil, fmt.Errorf("asset type %q does not belong to %s", rec.Type, key.Category)
	}
	rec.Currency = key.Market.CurrencyCode()

	asset, err := backend.ToDomain(rec)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// CreateAsset saves a new asset in the bucket
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	asset, err := decodeAsset(r, key)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	asset.Base().ID = ""
	asset.Base().DBID = ""

	created, err := h.Session.Add(r.Context(), asset)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": created.Base().ID})
}

// UpdateAsset saves changes to an asset of the bucket
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	id := chi.URLParam(r, "id")

	existing, ok := h.Session.Find(key, id)
	if !ok {
		writeError(r.Context(), w, domain.ErrNotFound)
		return
	}
	asset, err := decodeAsset(r, key)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	asset.Base().ID = existing.Base().ID
	asset.Base().DBID = existing.Base().DBID

	if err := h.Session.Update(r.Context(), asset); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAsset removes one asset of the bucket
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Delete(r.Context(), bucketFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	ID        string `json:"id"`
	Direction string `json:"direction"` // up or down
	TargetID  string `json:"targetId"`  // drag and drop target
}

// MoveAsset reorders the visible list of the bucket
func (h *Handler) MoveAsset(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		sendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	var (
		moved bool
		err   error
	)
	switch {
	case req.TargetID != "":
		moved, err = h.Session.MoveByID(r.Context(), key, req.ID, req.TargetID)
	case req.Direction == "up":
		moved, err = h.Session.MoveUp(r.Context(), key, req.ID)
	case req.Direction == "down":
		moved, err = h.Session.MoveDown(r.Context(), key, req.ID)
	default:
		sendJSONError(w, "direction must be up or down, or targetId must be set", http.StatusBadRequest)
		return
	}
	if err != nil && !moved {
		writeError(r.Context(), w, err)
		return
	}
	if err != nil {
		// the order changed in memory; only persisting it failed
		logger.FromContext(r.Context()).Warn("Failed to persist order", "bucket", key.String(), "error", err)
	}

	ids := domain.AssetIDs(h.Session.View(key))
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "order": ids})
}

type selectRequest struct {
	ID  string `json:"id"`
	All *bool  `json:"all"`
}

// Select toggles one asset or selects/deselects the whole visible list
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	switch {
	case req.All != nil && *req.All:
		h.Session.SelectAll(key)
	case req.All != nil:
		h.Session.DeselectAll(key)
	case req.ID != "":
		if _, err := h.Session.Toggle(key, req.ID); err != nil {
			writeError(r.Context(), w, err)
			return
		}
	default:
		sendJSONError(w, "id or all is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"selected":    nonNil(h.Session.Selected(key)),
		"allSelected": h.Session.AreAllSelected(key),
	})
}

// DeleteSelected deletes every selected asset of the bucket.
// The request must carry confirm=true; otherwise the selection count is returned with 409.
func (h *Handler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	var pending int
	result, err := h.Session.BulkDelete(r.Context(), key, func(n int) bool {
		pending = n
		return confirmed
	})
	if errors.Is(err, domain.ErrCancelled) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   fmt.Sprintf("Delete %d selected assets? Repeat with confirm=true.", pending),
			"pending": pending,
		})
		return
	}
	if err != nil && result.Succeeded == 0 && result.Failed == 0 {
		writeError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	msg := fmt.Sprintf("Deleted %d assets.", result.Succeeded)
	if result.Failed > 0 {
		status = http.StatusMultiStatus
		msg = fmt.Sprintf("Deleted %d assets, %d failed.", result.Succeeded, result.Failed)
	}
	writeJSON(w, status, map[string]any{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"message":   msg,
	})
}

// ImportStatement uploads a statement for the bucket
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	key := bucketFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "A statement file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := h.Session.ImportStatement(r.Context(), header.Filename, file, key.Category, key.Market)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      res.Success,
		"message":      res.Message,
		"createdCount": res.CreatedCount,
	})
}

type chatMessageView struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toChatViews(msgs []domain.ChatMessage) []chatMessageView {
	out := make([]chatMessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessageView{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// GetChatHistory returns the assistant conversation
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toChatViews(h.Assistant.History()))
}

// SendChat forwards a message to the assistant
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	answer, err := h.Assistant.Send(r.Context(), req.Message)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		sendJSONError(w, "Message is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reply":   toChatViews([]domain.ChatMessage{answer})[0],
		"history": toChatViews(h.Assistant.History()),
	})
}

// ResetChat clears the assistant conversation
func (h *Handler) ResetChat(w http.ResponseWriter, r *http.Request) {
	h.Assistant.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
