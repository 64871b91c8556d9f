package main

import (
	_ "video-hosting/docs"

	"video-hosting/internal/app"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
)

// @title			Video Hosting API
// @version		1.0
// @description	Chunked video uploads, background transcoding and delivery.
// @BasePath		/api/v1
func main() {
	fx.New(app.Server).Run()
}
