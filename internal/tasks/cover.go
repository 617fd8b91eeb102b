package tasks

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

const downloadTimeout = 30 * time.Second

// CoverOptions bound the cover transfer.
type CoverOptions struct {
	Attempts int           // total tries per cover
	Delay    time.Duration // fixed sleep between tries
	Quality  int           // JPEG re-encode quality
}

// CoverReplicator copies a cover image onto another playlist.
type CoverReplicator struct {
	api    services.SpotifyAPI
	client *http.Client
	opts   CoverOptions
	logger *log.Logger
}

// NewCoverReplicator creates a replicator. A nil client gets a default one with a download timeout.
func NewCoverReplicator(api services.SpotifyAPI, client *http.Client, opts CoverOptions, logger *log.Logger) *CoverReplicator {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 55
	}
	return &CoverReplicator{api: api, client: client, opts: opts, logger: shared.WithLogger(logger, "component", "cover")}
}

// Replicate downloads sourceURL and uploads it as the cover of targetID.
//
// JPEG images are re-encoded at reduced quality, gzip payloads are decompressed and uploaded as-is,
// anything else is skipped. Failures are retried with a fixed delay and then dropped:
// the returned bytes are nil whenever no cover was set.
func (c *CoverReplicator) Replicate(ctx context.Context, targetID, sourceURL string) []byte {
	if sourceURL == "" {
		return nil
	}

	logger := shared.WithLogger(c.logger, "playlist_id", targetID)
	op := func() ([]byte, error) {
		raw, err := c.download(ctx, sourceURL)
		if err != nil {
			return nil, err
		}

		payload, err := c.transcode(raw)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if err := c.api.UploadPlaylistCover(ctx, targetID, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}

	notify := func(err error, next time.Duration) {
		logger.Warn("cover transfer failed, retrying", "err", err, "in", next)
	}

	payload, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.Delay)),
		backoff.WithMaxTries(uint(c.opts.Attempts)),
		backoff.WithMaxElapsedTime(time.Duration(c.opts.Attempts)*(c.opts.Delay+downloadTimeout)),
		backoff.WithNotify(notify),
	)
	switch {
	case errors.Is(err, shared.ErrUnsupportedImage):
		logger.Info("skipping cover", "err", err)
		return nil
	case err != nil:
		logger.Warn("giving up on cover", "attempts", c.opts.Attempts, "err", err)
		return nil
	}

	logger.Debug("cover replicated", "bytes", len(payload))
	return payload
}

func (c *CoverReplicator) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cover download returned %s", shared.ErrAPIRequest, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// transcode prepares raw for upload based on its sniffed content type.
func (c *CoverReplicator) transcode(raw []byte) ([]byte, error) {
	switch mime := http.DetectContentType(raw); mime {
	case "image/jpeg":
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnsupportedImage, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.Quality}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "application/x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnsupportedImage, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedImage, mime)
	}
}
