package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles serves the built frontend from dir for every path no
// route claims. Unknown paths fall back to index.html for client routing.
func setupStaticFiles(router *gin.Engine, dir string, logger *zap.Logger) {
	if dir == "" {
		logger.Info("no WEB_DIR configured, serving the API only")
		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		})
		return
	}

	logger.Info("serving frontend assets", zap.String("dir", dir))
	index := filepath.Join(dir, "index.html")

	router.NoRoute(func(c *gin.Context) {
		urlPath := c.Request.URL.Path
		if strings.HasPrefix(urlPath, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}

		cleanPath := path.Clean("/" + urlPath)
		if cleanPath != "/" {
			file := filepath.Join(dir, filepath.FromSlash(cleanPath[1:]))
			if stat, err := os.Stat(file); err == nil && !stat.IsDir() {
				c.File(file)
				return
			}
		}

		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}
		c.File(index)
	})
}
