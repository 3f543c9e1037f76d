package fakecompute

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// respondError sends an error in the compute API envelope.
func respondError(c *gin.Context, statusCode int, reason, message string) {
	c.JSON(statusCode, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    statusCode,
			Message: message,
			Errors: []models.ErrorItem{
				{Domain: "global", Reason: reason, Message: message},
			},
		},
	})
}

// mapErrorToResponse converts a store or validation error to an HTTP
// response.
func mapErrorToResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, "notFound", err.Error())
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, "alreadyExists", err.Error())
	case errors.Is(err, models.ErrResourceInUse):
		respondError(c, http.StatusBadRequest, "resourceInUseByAnotherResource", err.Error())
	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "authError", "Invalid Credentials")
	default:
		logging.FromContext(c.Request.Context()).Error("unexpected error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "backendError", "Internal Error")
	}
}

// apiRoot is the absolute URL prefix of resource links for this request.
func apiRoot(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/compute/" + c.Param("version") + "/"
}

// respondResource sends r with absolute links.
func respondResource(c *gin.Context, r models.Resource) {
	c.JSON(http.StatusOK, expand(r, apiRoot(c)))
}

// scopeOf returns the scope addressed by the route.
func scopeOf(c *gin.Context) string {
	if zone := c.Param("zone"); zone != "" {
		return "zones/" + zone
	}
	if c.GetBool("global") {
		return names.GlobalZone
	}
	return ""
}

// markGlobal tags requests routed through the global scope.
func markGlobal(c *gin.Context) {
	c.Set("global", true)
	c.Next()
}

// getProject handles GET /compute/:version/projects/:project.
func (s *Server) getProject(c *gin.Context) {
	project := c.Param("project")
	r, err := s.store.Get(projectsPath, project)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	respondResource(c, s.withUsage(r, project, ""))
}

// getZone handles GET .../zones/:zone.
func (s *Server) getZone(c *gin.Context) {
	r, err := s.get(c.Param("project"), "", collectionZones, c.Param("zone"))
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	respondResource(c, r)
}

// listZones handles GET .../zones.
func (s *Server) listZones(c *gin.Context) {
	s.respondList(c, collectionZones, s.list(c.Param("project"), "", collectionZones))
}

// getResource handles GET of a single resource in any scope.
func (s *Server) getResource(c *gin.Context) {
	r, err := s.get(c.Param("project"), scopeOf(c), c.Param("collection"), c.Param("name"))
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	respondResource(c, r)
}

// listResources handles GET of a collection in any scope.
func (s *Server) listResources(c *gin.Context) {
	collectionName := c.Param("collection")
	s.respondList(c, collectionName, s.list(c.Param("project"), scopeOf(c), collectionName))
}

func (s *Server) respondList(c *gin.Context, collectionName string, items []models.Resource) {
	page, err := paginate(items, c.Query("filter"), c.Query("maxResults"), c.Query("pageToken"))
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	path := CollectionPath(c.Param("project"), scopeOf(c), collectionName)
	result := models.Resource{
		"kind":     models.KindPrefix + names.Singularize(collectionName) + "List",
		"selfLink": path,
	}
	if len(page.items) > 0 {
		raw := make([]interface{}, len(page.items))
		for i, item := range page.items {
			raw[i] = item
		}
		result["items"] = raw
	}
	if page.nextPageToken != "" {
		result["nextPageToken"] = page.nextPageToken
	}
	respondResource(c, result)
}

// insertResource handles POST to a collection in any scope.
func (s *Server) insertResource(c *gin.Context) {
	var body models.Resource
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "parseError", "Parse Error")
		return
	}

	op, err := s.insert(c.Param("project"), scopeOf(c), c.Param("collection"), body)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	respondResource(c, op)
}

// deleteResource handles DELETE of a resource in any scope.
func (s *Server) deleteResource(c *gin.Context) {
	op, err := s.remove(c.Param("project"), scopeOf(c), c.Param("collection"), c.Param("name"))
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	if op == nil {
		c.Status(http.StatusNoContent)
		return
	}
	respondResource(c, op)
}
