package main

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles serves a built frontend from dir when it has an index.html
func setupStaticFiles(router *gin.Engine, dir string, logger *zap.Logger) {
	fsys := os.DirFS(dir)
	if _, err := fs.Stat(fsys, "index.html"); err != nil {
		logger.Info("no frontend build found, serving API only", zap.String("static_dir", dir))
		router.NoRoute(apiNotFound(func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Frontend is running separately",
				"dev_url": "http://localhost:3000",
			})
		}))
		return
	}

	logger.Info("serving frontend", zap.String("static_dir", dir))
	router.NoRoute(apiNotFound(spaHandler(fsys)))
}

// apiNotFound answers unknown /api paths with JSON and hands everything else to next
func apiNotFound(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		next(c)
	}
}

// spaHandler serves files from fsys and falls back to index.html for client-side routes
func spaHandler(fsys fs.FS) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(fsys))
	return func(c *gin.Context) {
		name := strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/")
		if name != "" {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.FileFromFS("/", http.FS(fsys))
	}
}
