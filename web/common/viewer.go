package common

import (
	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/model"
)

const viewerKey = "viewer"

func SetViewer(c *gin.Context, v model.Viewer) {
	c.Set(viewerKey, v)
}

// CurrentViewer is the caller set by the authentication middleware
func CurrentViewer(c *gin.Context) model.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(model.Viewer); ok {
			return viewer
		}
	}
	return model.Viewer{}
}
