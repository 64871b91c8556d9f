package main

import (
	"video-hosting/internal/app"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
)

// Standalone transcode worker. It shares the redis queue, metadata store and
// asset storage with the API servers, so it needs QUEUE_DRIVER=redis.
func main() {
	fx.New(
		fx.Invoke(app.RequireSharedQueue),
		app.Worker,
	).Run()
}
