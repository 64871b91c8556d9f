package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"video-hosting/internal/domain/dto"
	"video-hosting/pkg/constants"
	"video-hosting/pkg/file"

	"golang.org/x/sync/errgroup"
)

const LIMIT = 5

type UploadProgress struct {
	mu          sync.RWMutex
	totalChunks int
	uploaded    int
	failed      int
	startTime   time.Time
}

func (up *UploadProgress) IncrementUploaded() {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.uploaded++
}

func (up *UploadProgress) IncrementFailed() {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.failed++
}

func (up *UploadProgress) GetProgress() (uploaded, failed, total int) {
	up.mu.RLock()
	defer up.mu.RUnlock()
	return up.uploaded, up.failed, up.totalChunks
}

type client struct {
	base string
	http *http.Client
}

func (c *client) url(path string) string {
	return strings.TrimRight(c.base, "/") + path
}

// do sends req and decodes a 2xx JSON body into out.
func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *client) createUpload(ctx context.Context, in dto.CreateUploadRequestDTO) (*dto.CreateUploadResponse, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/admin/videos"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out dto.CreateUploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) uploadChunk(ctx context.Context, videoID string, chunk dto.ChunkDTO, data []byte) (*dto.UploadChunkResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("chunkId", chunk.ID)
	writer.WriteField("chunkHash", file.CalculateHash(data))

	part, err := writer.CreateFormFile("file", chunk.ID)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url("/admin/videos/"+videoID), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out dto.UploadChunkResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) deleteVideo(ctx context.Context, videoID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/admin/videos/"+videoID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *client) status(ctx context.Context, videoID string) (*dto.UploadStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/admin/videos/"+videoID+"/status"), nil)
	if err != nil {
		return nil, err
	}
	var out dto.UploadStatusResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func main() {
	server := flag.String("server", "http://localhost:3000/api/v1", "Server base URL")
	filePath := flag.String("file", "", "Video file to upload")
	name := flag.String("name", "", "Video name (defaults to the file name)")
	premium := flag.Bool("premium", false, "Mark the video as premium")
	shuffle := flag.Bool("shuffle", true, "Send chunks in random order")
	wait := flag.Duration("wait", 10*time.Minute, "How long to wait for the video to become READY (0 skips)")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("-file is required")
	}
	if !file.IsVideoFile(*filePath) {
		log.Fatalf("%s does not look like a video file\n", *filePath)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("could not open file: %v\n", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		log.Fatalf("could not stat file: %v\n", err)
	}

	filename := filepath.Base(stat.Name())
	if *name == "" {
		*name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &client{base: *server, http: &http.Client{Timeout: 2 * time.Minute}}

	upload, err := c.createUpload(ctx, dto.CreateUploadRequestDTO{
		Name:      *name,
		IsPremium: *premium,
		TotalSize: stat.Size(),
		Extension: filepath.Ext(filename),
	})
	if err != nil {
		log.Fatalf("create upload failed: %v\n", err)
	}

	fmt.Printf("Server: %s\n", *server)
	fmt.Printf("File: %s (%d bytes)\n", filename, stat.Size())
	fmt.Printf("Video ID: %s\n", upload.VideoID)
	fmt.Printf("Chunk size: %d bytes | Total chunks: %d\n", upload.ChunkSize, len(upload.Chunks))
	fmt.Println("Press Ctrl+C to cancel...")

	chunks := append([]dto.ChunkDTO(nil), upload.Chunks...)
	if *shuffle {
		rand.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })
	}

	progress := &UploadProgress{totalChunks: len(chunks), startTime: time.Now()}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				uploaded, failed, total := progress.GetProgress()
				if uploaded+failed > 0 {
					fmt.Printf("\rProgress: %d/%d done, %d failed", uploaded, total, failed)
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(LIMIT)
	var lastStatus string
	var statusMu sync.Mutex
	for _, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			buf := make([]byte, chunk.End-chunk.Start)
			if _, err := f.ReadAt(buf, chunk.Start); err != nil && err != io.EOF {
				progress.IncrementFailed()
				return fmt.Errorf("read chunk %s: %w", chunk.ID, err)
			}

			resp, err := c.uploadChunk(gctx, upload.VideoID, chunk, buf)
			if err != nil {
				progress.IncrementFailed()
				return fmt.Errorf("chunk %s: %w", chunk.ID, err)
			}
			progress.IncrementUploaded()

			statusMu.Lock()
			if resp.RemainingChunks == 0 {
				lastStatus = resp.VideoStatus
			}
			statusMu.Unlock()
			return nil
		})
	}
	uploadErr := g.Wait()
	close(done)

	uploaded, failed, total := progress.GetProgress()
	fmt.Printf("\nUpload finished: %d/%d succeeded, %d failed in %s\n",
		uploaded, total, failed, time.Since(progress.startTime).Round(time.Millisecond))

	if ctx.Err() != nil || uploadErr != nil {
		if uploadErr != nil && ctx.Err() == nil {
			log.Printf("upload failed: %v\n", uploadErr)
		} else {
			fmt.Println("Cancelling upload...")
		}
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.deleteVideo(cleanupCtx, upload.VideoID); err != nil {
			log.Fatalf("delete request failed: %v\n", err)
		}
		fmt.Println("Upload cancelled, video marked for deletion")
		os.Exit(1)
	}

	if lastStatus != "" {
		fmt.Printf("Last chunk accepted, video is %s\n", lastStatus)
	}
	if *wait <= 0 {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, *wait)
	defer cancel()
	if err := waitForReady(waitCtx, c, upload.VideoID); err != nil {
		log.Fatalf("video not ready: %v\n", err)
	}
	fmt.Printf("Video ready: %s/videos/%s/stream\n", strings.TrimRight(*server, "/"), upload.VideoID)
}

func waitForReady(ctx context.Context, c *client, videoID string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		st, err := c.status(ctx, videoID)
		if err != nil {
			return err
		}
		switch st.Status {
		case constants.VideoStatusReady:
			return nil
		case constants.VideoStatusDeleting:
			return fmt.Errorf("video %s is being deleted", videoID)
		}
		fmt.Printf("\rStatus: %s", st.Status)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
