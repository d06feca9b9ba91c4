package reference

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/errors"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

// Handler serves the read-only document type dictionary.
type Handler struct {
	ref *model.Reference
}

func NewHandler(ref *model.Reference) *Handler {
	return &Handler{ref: ref}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	docTypes := r.Group("/document-types")
	{
		docTypes.GET("", h.ListDocumentTypes)
		docTypes.GET("/:name/defaults", h.GetDefaults)
	}
}

type defaultsResponse struct {
	DocType string        `json:"doc_type"`
	DocInfo model.DocInfo `json:"docinfo"`
}

func (h *Handler) ListDocumentTypes(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.ref.DocumentTypes())
}

func (h *Handler) GetDefaults(c *gin.Context) {
	dt, ok := h.ref.LookupDocumentType(c.Param("name"))
	if !ok {
		_ = c.Error(errors.NotFound("document type", nil))
		return
	}
	docInfo, _ := h.ref.DefaultDocInfo(dt.Name)
	httputil.RespondWithSuccess(c, defaultsResponse{DocType: dt.Name, DocInfo: docInfo})
}
