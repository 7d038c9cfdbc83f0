package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/engine/content"
	"secondbrain/internal/engine/policy"
	"secondbrain/internal/engine/tags"
	"secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/audit"
	"secondbrain/internal/platform/models"
	"secondbrain/internal/platform/repositories"
	"secondbrain/internal/platform/storage"
)

type ContentHandler struct {
	svc            *content.Service
	tagManager     *tags.Manager
	attachmentRepo *repositories.AttachmentRepository
	store          storage.Store
	audit          *audit.Logger
	maxUploadBytes int64
}

func NewContentHandler(svc *content.Service, tagManager *tags.Manager, attachmentRepo *repositories.AttachmentRepository, store storage.Store, auditLog *audit.Logger, maxUploadBytes int64) *ContentHandler {
	return &ContentHandler{
		svc:            svc,
		tagManager:     tagManager,
		attachmentRepo: attachmentRepo,
		store:          store,
		audit:          auditLog,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create accepts plain JSON, or multipart form data when the capture
// includes a file. The multipart path carries the same fields plus an
// optional "file" part stored as the item's first attachment.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.createMultipart(w, r)
		return
	}

	var req content.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	item, err := h.svc.Create(actor, &req)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	h.audit.Log(r.Context(), "content.create", "content_item", item.ID, nil)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ContentHandler) createMultipart(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid multipart form or file too large", nil)
		return
	}

	req := content.CreateRequest{
		Title:          r.FormValue("title"),
		Excerpt:        r.FormValue("excerpt"),
		Content:        r.FormValue("content"),
		URL:            r.FormValue("url"),
		Type:           content.ContentType(r.FormValue("type")),
		Visibility:     policy.Visibility(r.FormValue("visibility")),
		OrganizationID: r.FormValue("organization_id"),
		Pinned:         r.FormValue("pinned") == "true",
		Archived:       r.FormValue("archived") == "true",
		Published:      r.FormValue("published") == "true",
	}
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Metadata); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid metadata JSON", nil)
			return
		}
	}
	if raw := r.FormValue("tag_ids"); raw != "" {
		req.TagIDs = strings.Split(raw, ",")
	}

	item, err := h.svc.Create(actor, &req)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		attachment, err := h.saveAttachment(r, item.ID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to store file", nil)
			return
		}
		item.Attachments = append(item.Attachments, attachment)
	}

	h.audit.Log(r.Context(), "content.create", "content_item", item.ID, nil)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	q := r.URL.Query()

	f := content.Filter{
		Query:          q.Get("q"),
		Type:           content.ContentType(q.Get("type")),
		OwnerID:        q.Get("owner_id"),
		OrganizationID: q.Get("organization_id"),
		Visibility:     policy.Visibility(q.Get("visibility")),
		Tag:            q.Get("tag"),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	if f.Type != "" && !f.Type.Valid() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid content type", nil)
		return
	}
	if f.Visibility != "" && !f.Visibility.Valid() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid visibility", nil)
		return
	}

	page, err := h.svc.List(actor, f)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	item, err := h.svc.Get(actor, paramFrom(r, "id"))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := paramFrom(r, "id")

	var req content.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	item, err := h.svc.Update(actor, id, &req)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	h.audit.Log(r.Context(), "content.update", "content_item", item.ID, nil)
	writeJSON(w, http.StatusOK, item)
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := paramFrom(r, "id")

	if err := h.svc.Delete(actor, id); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	h.audit.Log(r.Context(), "content.delete", "content_item", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	contentID := paramFrom(r, "id")
	tagID := paramFrom(r, "tagId")

	attachment, err := h.tagManager.Attach(actor, contentID, tagID)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	h.audit.Log(r.Context(), "content.tag.attach", "content_item", contentID, map[string]interface{}{"tag_id": tagID})
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *ContentHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	contentID := paramFrom(r, "id")
	tagID := paramFrom(r, "tagId")

	if err := h.tagManager.Detach(actor, contentID, tagID); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	h.audit.Log(r.Context(), "content.tag.detach", "content_item", contentID, map[string]interface{}{"tag_id": tagID})
	w.WriteHeader(http.StatusNoContent)
}

// Upload stores a file for an existing item. The actor needs write
// permission on the item; the check is read-only so the row itself stays
// untouched.
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	contentID := paramFrom(r, "id")

	if _, err := h.svc.AuthorizeWrite(actor, contentID); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid multipart form or file too large", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing file", nil)
		return
	}
	defer file.Close()

	attachment, err := h.saveAttachment(r, contentID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to store file", nil)
		return
	}

	h.audit.Log(r.Context(), "content.attachment.upload", "content_item", contentID, map[string]interface{}{"attachment_id": attachment.ID})
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *ContentHandler) saveAttachment(r *http.Request, contentID, filename, mimeType string, size int64, file io.Reader) (*models.Attachment, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	url, err := h.store.Save(r.Context(), storage.NewKey(filename), mimeType, file)
	if err != nil {
		return nil, err
	}

	claims := claimsFrom(r)
	attachment := &models.Attachment{
		ID:            "att_" + uuid.NewString(),
		ContentItemID: contentID,
		URL:           url,
		Filename:      filename,
		MimeType:      mimeType,
		Size:          size,
		UploadedBy:    claims.UserID,
		CreatedAt:     time.Now().Unix(),
	}
	if err := h.attachmentRepo.Create(attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}
