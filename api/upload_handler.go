package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
	"github.com/rpupo63/portfolio-cms-backend/services"
)

const (
	uploadImage    = "image"
	uploadVideo    = "video"
	uploadPDF      = "pdf"
	uploadDocument = "document"

	// multipart headers and the other form fields
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// uploadRule bounds the size and sniffed MIME types of one asset kind.
type uploadRule struct {
	maxSize int64
	allowed []string
}

func defaultUploadRules() map[string]uploadRule {
	return map[string]uploadRule{
		uploadImage: {
			maxSize: 20 << 20,
			allowed: []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/avif", "image/svg+xml"},
		},
		uploadVideo: {
			maxSize: 100 << 20,
			allowed: []string{"video/mp4", "video/webm", "video/quicktime"},
		},
		uploadPDF: {
			maxSize: 50 << 20,
			allowed: []string{"application/pdf"},
		},
		uploadDocument: {
			maxSize: 50 << 20,
			allowed: []string{
				"application/pdf",
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				"application/vnd.oasis.opendocument.text",
				"text/plain",
				"text/markdown",
			},
		},
	}
}

// UploadResponse describes a stored file
type UploadResponse struct {
	URL         string `json:"url" example:"/uploads/projects/2b1f0c0e-3d59-4b8e-9a53-6f7d0c4d1e2a.png"`
	Key         string `json:"key" example:"projects/2b1f0c0e-3d59-4b8e-9a53-6f7d0c4d1e2a.png"`
	Size        int64  `json:"size" example:"48213"`
	Type        string `json:"type" example:"image"`
	ContentType string `json:"contentType" example:"image/png"`
}

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	store     services.Store
	activity  activityRecorder
	metrics   *metrics
	rules     map[string]uploadRule
}

func newUploadHandler(store services.Store, activityRepo *database.ActivityLogRepo, m *metrics) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()

	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		store:     store,
		activity:  newActivityRecorder(activityRepo, logger),
		metrics:   m,
		rules:     defaultUploadRules(),
	}
}

func (h uploadHandler) maxRequestSize() int64 {
	var largest int64
	for _, rule := range h.rules {
		largest = max(largest, rule.maxSize)
	}
	return largest + multipartOverhead
}

// uploadFile stores one multipart file after checking its sniffed type and size
// @Summary Upload a file
// @Description Stores an image, video, pdf or document and returns its public URL
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param folder formData string false "Target folder, e.g. projects"
// @Param type formData string false "image, video, pdf or document; inferred when omitted"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Missing file or invalid type"
// @Failure 413 {object} ErrorResponse "Request Entity Too Large"
// @Failure 415 {object} ErrorResponse "Unsupported Media Type"
// @Router /api/upload [post]
func (h uploadHandler) uploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize())
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxErr.Limit))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart form", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}
		defer file.Close()

		mtype, err := mimetype.DetectReader(file)
		if err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("file", err))
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not rewind upload", err))
			return
		}

		kind := strings.ToLower(strings.TrimSpace(r.FormValue("type")))
		if kind == "" {
			kind = inferUploadKind(mtype)
		}
		rule, ok := h.rules[kind]
		if !ok {
			h.responder.WriteError(w, errs.NewInvalidFieldError("type", "must be image, video, pdf or document"))
			return
		}
		if !mimeAllowed(mtype, rule.allowed) {
			h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(mtype.String(), rule.allowed))
			return
		}
		if header.Size > rule.maxSize {
			h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(rule.maxSize))
			return
		}

		folder := sanitizeFolder(r.FormValue("folder"))
		if folder == "" {
			folder = kind + "s"
		}
		key := path.Join(folder, uuid.NewString()+mtype.Extension())
		contentType := mtype.String()

		url, err := h.store.Put(r.Context(), services.Object{
			Key:         key,
			ContentType: contentType,
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			h.responder.WriteError(w, errs.NewStorageWriteError(key, err))
			return
		}

		if h.metrics != nil {
			h.metrics.uploads.WithLabelValues(kind).Inc()
			h.metrics.uploadBytes.Add(float64(header.Size))
		}
		h.activity.record(r.Context(), models.ActionUpload, "file", nil,
			fmt.Sprintf("Uploaded %s %q", kind, header.Filename),
			map[string]any{"key": key, "size": header.Size, "contentType": contentType})
		h.responder.WriteJSONStatus(w, http.StatusCreated, UploadResponse{
			URL:         url,
			Key:         key,
			Size:        header.Size,
			Type:        kind,
			ContentType: contentType,
		})
	}
}

func inferUploadKind(mtype *mimetype.MIME) string {
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"):
			return uploadImage
		case strings.HasPrefix(m.String(), "video/"):
			return uploadVideo
		case m.Is("application/pdf"):
			return uploadPDF
		}
	}
	return uploadDocument
}

func mimeAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mtype.Is(a) {
			return true
		}
	}
	return false
}

var unsafeFolderChars = regexp.MustCompile(`[^a-z0-9_/-]+`)

// sanitizeFolder lowercases folder, drops characters outside [a-z0-9_-/]
// and any parent or empty segments.
func sanitizeFolder(folder string) string {
	folder = unsafeFolderChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(folder)), "")
	segments := make([]string, 0, 4)
	for _, s := range strings.Split(folder, "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, "/")
}
