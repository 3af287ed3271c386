package downloader

import (
	"context"
	"errors"

	"github.com/bluele/gcache"
)

const DefaultMemoryCacheSize = 64

// Caches downloaded files in memory
type MemoryDownloader struct {
	cache gcache.Cache
}

func NewMemoryDownloader() *MemoryDownloader {
	return NewMemoryDownloaderWithClock(gcache.NewRealClock())
}

func NewMemoryDownloaderWithClock(clock gcache.Clock) *MemoryDownloader {
	return &MemoryDownloader{
		cache: gcache.New(DefaultMemoryCacheSize).LRU().Clock(clock).Build(),
	}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	if options.Cache {
		cached, err := d.cache.Get(url)
		if err == nil {
			return cached.([]byte), nil
		}
		if !errors.Is(err, gcache.KeyNotFoundError) {
			return nil, err
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		err = d.cache.SetWithExpire(url, body, options.CacheTTL)
		if err != nil {
			return nil, err
		}
	}

	return body, nil
}
