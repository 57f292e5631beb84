package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"dotk/api/internal/money"
	"dotk/api/internal/repository"
)

// Public listings are the hot path of the site; responses are cached
// whole in redis and busted on any tender or event mutation.
const (
	cacheKeyPublicTenders  = "public:tenders"
	cacheKeyPublicEvents   = "public:events"
	cacheKeyHomepageEvents = "public:events:homepage"

	publicCacheTTL = time.Minute
	homepageLimit  = 10
)

func (h HandlerSet) PublicTenders(c *gin.Context) {
	h.cachedJSON(c, cacheKeyPublicTenders, func(ctx context.Context) (any, error) {
		tenders, err := h.tenders.ListPublished(ctx)
		if err != nil {
			return nil, err
		}

		payload := make([]gin.H, 0, len(tenders))
		for _, t := range tenders {
			docs := make([]gin.H, 0, len(t.Documents))
			for _, d := range t.Documents {
				docs = append(docs, gin.H{
					"name": d.Name,
					"url":  d.FilePath,
					"type": d.FileType,
				})
			}
			payload = append(payload, gin.H{
				"id":             t.ID,
				"title":          t.Title,
				"description":    t.Description,
				"tenderNumber":   t.TenderNumber,
				"publishDate":    fmtDate(t.PublishDate),
				"closingDate":    fmtDate(t.EffectiveClosingDate()),
				"estimatedValue": money.Format(t.EstimatedValue),
				"category":       t.Category,
				"status":         t.PublicStatus(),
				"department":     t.Department,
				"documents":      docs,
				"contactPerson":  t.ContactPerson,
				"contactEmail":   t.ContactEmail,
				"contactPhone":   t.ContactPhone,
			})
		}
		return payload, nil
	})
}

func (h HandlerSet) PublicEvents(c *gin.Context) {
	h.cachedJSON(c, cacheKeyPublicEvents, func(ctx context.Context) (any, error) {
		events, err := h.events.List(ctx, repository.EventFilter{})
		if err != nil {
			return nil, err
		}

		now := time.Now()
		payload := make([]gin.H, 0, len(events))
		for _, e := range events {
			payload = append(payload, eventPayload(e, now))
		}
		return gin.H{"events": payload}, nil
	})
}

func (h HandlerSet) HomepageEvents(c *gin.Context) {
	h.cachedJSON(c, cacheKeyHomepageEvents, func(ctx context.Context) (any, error) {
		events, err := h.events.ListHomepage(ctx, homepageLimit)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		payload := make([]gin.H, 0, len(events))
		for _, e := range events {
			payload = append(payload, eventPayload(e, now))
		}
		return gin.H{"events": payload}, nil
	})
}

// cachedJSON serves the cached body when present, otherwise builds the
// payload, caches it and responds. A broken cache degrades to building
// every request rather than failing it.
func (h HandlerSet) cachedJSON(c *gin.Context, key string, build func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()

	if h.cache != nil {
		raw, err := h.cache.Get(ctx, key).Bytes()
		if err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
			return
		}
		if !errors.Is(err, redis.Nil) {
			h.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
	}

	payload, err := build(ctx)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("build public listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if h.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			if err := h.cache.Set(ctx, key, raw, publicCacheTTL).Err(); err != nil {
				h.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}

	c.JSON(http.StatusOK, payload)
}

func (h HandlerSet) bustTenderCache(ctx context.Context) {
	h.bustCache(ctx, cacheKeyPublicTenders)
}

func (h HandlerSet) bustEventCache(ctx context.Context) {
	h.bustCache(ctx, cacheKeyPublicEvents, cacheKeyHomepageEvents)
}

func (h HandlerSet) bustCache(ctx context.Context, keys ...string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, keys...).Err(); err != nil {
		h.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
