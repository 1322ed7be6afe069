package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/service"
)

// statusRequest is the body of a status update.
type statusRequest struct {
	Status model.Status `json:"status"`
}

// ListDocuments returns the documents matching the query filters.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Param q query string false "case-insensitive text in title, description or tags"
// @Param category query string false "exact category"
// @Param department query string false "exact department"
// @Param status query string false "pending, approved or rejected"
// @Param confidentiality query string false "exact confidentiality"
// @Param dateFrom query string false "RFC3339 or YYYY-MM-DD, inclusive"
// @Param dateTo query string false "RFC3339 or YYYY-MM-DD, inclusive"
// @Success 200 {array} model.Document
// @Failure 400 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := query.ParseDate(c.Query("dateFrom"), false)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid dateFrom")
		}
		to, err := query.ParseDate(c.Query("dateTo"), true)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid dateTo")
		}

		docs, err := docSvc.List(c.UserContext(), query.Criteria{
			Q:               c.Query("q"),
			Category:        c.Query("category"),
			Department:      c.Query("department"),
			Status:          c.Query("status"),
			Confidentiality: c.Query("confidentiality"),
			DateFrom:        from,
			DateTo:          to,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(docs)
	}
}

// UploadDocument accepts a multipart upload (field "file") plus metadata fields.
//
// @Summary Upload a document
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param file formData file true "document content"
// @Param title formData string false "title, defaults to the file name"
// @Param description formData string false "description"
// @Param category formData string false "category"
// @Param department formData string false "department"
// @Param confidentiality formData string false "confidentiality"
// @Param tags formData string false "comma separated tags"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Router /api/documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		// tags may be sent once as a comma separated list or repeated
		var tags []string
		if form, err := c.MultipartForm(); err == nil {
			for _, v := range form.Value["tags"] {
				tags = append(tags, model.ParseTags(v)...)
			}
		}

		doc, err := docSvc.Upload(c.UserContext(), f, service.UploadInput{
			OriginalName:    fh.Filename,
			ContentType:     ct,
			Size:            fh.Size,
			Title:           strings.TrimSpace(c.FormValue("title")),
			Description:     c.FormValue("description"),
			Category:        c.FormValue("category"),
			Department:      c.FormValue("department"),
			Confidentiality: c.FormValue("confidentiality"),
			Tags:            tags,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a single document.
//
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the stored file under its original name.
//
// @Summary Download a document file
// @Tags documents
// @Produce octet-stream
// @Param id path string true "document id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/documents/{id}/download [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := docSvc.Open(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Attachment(doc.OriginalName)
		if doc.MimeType != "" {
			c.Set(fiber.HeaderContentType, doc.MimeType)
		}
		// the response body stream closes rc once written
		return c.SendStream(rc, int(doc.Size))
	}
}

// UpdateDocument merges the metadata fields present in the JSON body.
// id, file attributes, status, version and history are ignored.
//
// @Summary Update document metadata
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body model.DocumentUpdate true "fields to change"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [put]
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var upd model.DocumentUpdate
		if body := c.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &upd); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
			}
		}

		doc, err := docSvc.Update(c.UserContext(), c.Params("id"), upd)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateStatus records an approval decision.
//
// @Summary Approve or reject a document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body statusRequest true "approved or rejected"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id}/status [patch]
func UpdateStatus(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req statusRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be approved or rejected")
		}

		doc, err := docSvc.SetStatus(c.UserContext(), c.Params("id"), req.Status)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes the document and its stored file.
//
// @Summary Delete a document
// @Tags documents
// @Param id path string true "document id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := docSvc.Delete(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
