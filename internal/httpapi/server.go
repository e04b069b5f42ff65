package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"vibeset.fm/catalog/internal/db"
)

const (
	defaultListLimit  = 10
	maxListLimit      = 100
	defaultSearchSize = 20
	minSearchTermLen  = 2
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8845
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		pool:   pool,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			CORSOrigins:     origins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/stats", s.handleStats)
	api.GET("/secondary-stats", s.handleSecondaryStats)
	api.GET("/deduplication-stats", s.handleDedupStats)
	api.GET("/issues", s.handleIssues)
	api.GET("/recent-songs", s.handleRecentSongs)
	api.GET("/top-artists", s.handleTopArtists)
	api.GET("/distribution", s.handleDistribution)
	api.GET("/year-distribution", s.handleYearDistribution)
	api.GET("/top-genres", s.handleTopGenres)
	api.GET("/health", s.handleHealth)
	api.GET("/search/songs", s.handleSearchSongs)
	api.GET("/search/artists", s.handleSearchArtists)
	api.GET("/variants/song/:song_id", s.handleSongVariants)
	api.GET("/variants/artist/:artist_id", s.handleArtistVariants)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("catalog report server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("catalog report server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryCatalogStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query catalog stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleSecondaryStats(c echo.Context) error {
	stats, err := s.pool.QuerySecondaryStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query secondary artist stats failed")
		return internalError(c, "Failed to load secondary artist stats")
	}
	return success(c, stats)
}

func (s *Server) handleDedupStats(c echo.Context) error {
	stats, err := s.pool.QueryDedupStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query deduplication stats failed")
		return internalError(c, "Failed to load deduplication stats")
	}
	return success(c, stats)
}

func (s *Server) handleIssues(c echo.Context) error {
	issues, err := s.pool.QueryDatabaseIssues(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query database issues failed")
		return internalError(c, "Failed to load database issues")
	}
	return success(c, issues)
}

func (s *Server) handleRecentSongs(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	songs, err := s.pool.QueryRecentSongs(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query recent songs failed")
		return internalError(c, "Failed to load recent songs")
	}
	return success(c, map[string]any{
		"items": songs,
		"limit": limit,
	})
}

func (s *Server) handleTopArtists(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	artists, err := s.pool.QueryTopArtists(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query top artists failed")
		return internalError(c, "Failed to load top artists")
	}
	return success(c, map[string]any{
		"items": artists,
		"limit": limit,
	})
}

func (s *Server) handleDistribution(c echo.Context) error {
	dist, err := s.pool.QueryDistribution(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query distribution failed")
		return internalError(c, "Failed to load distribution")
	}
	return success(c, dist)
}

func (s *Server) handleYearDistribution(c echo.Context) error {
	years, err := s.pool.QueryYearDistribution(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query year distribution failed")
		return internalError(c, "Failed to load year distribution")
	}
	return success(c, map[string]any{
		"items": years,
	})
}

func (s *Server) handleTopGenres(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	genres, err := s.pool.QueryTopGenres(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query top genres failed")
		return internalError(c, "Failed to load top genres")
	}
	return success(c, map[string]any{
		"items": genres,
		"limit": limit,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	score, err := s.pool.QueryHealthScore(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query health score failed")
		return internalError(c, "Failed to load health score")
	}
	return success(c, score)
}

func (s *Server) handleSearchSongs(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if len(term) < minSearchTermLen {
		return failValidation(c, map[string]string{"q": fmt.Sprintf("must be at least %d characters", minSearchTermLen)})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultSearchSize, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	results, err := s.pool.SearchSongs(c.Request().Context(), term, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("term", term).Msg("song search failed")
		return internalError(c, "Song search failed")
	}
	return success(c, map[string]any{
		"items": results,
		"query": term,
		"limit": limit,
	})
}

func (s *Server) handleSearchArtists(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if len(term) < minSearchTermLen {
		return failValidation(c, map[string]string{"q": fmt.Sprintf("must be at least %d characters", minSearchTermLen)})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultSearchSize, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	results, err := s.pool.SearchArtists(c.Request().Context(), term, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("term", term).Msg("artist search failed")
		return internalError(c, "Artist search failed")
	}
	return success(c, map[string]any{
		"items": results,
		"query": term,
		"limit": limit,
	})
}

func (s *Server) handleSongVariants(c echo.Context) error {
	songID, err := parseEntityID(c.Param("song_id"))
	if err != nil {
		return failValidation(c, map[string]string{"song_id": err.Error()})
	}

	variants, err := s.pool.QuerySongVariants(c.Request().Context(), songID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Song not found")
		}
		s.logger.Error().Err(err).Int64("song_id", songID).Msg("query song variants failed")
		return internalError(c, "Failed to load song variants")
	}
	return success(c, variants)
}

func (s *Server) handleArtistVariants(c echo.Context) error {
	artistID, err := parseEntityID(c.Param("artist_id"))
	if err != nil {
		return failValidation(c, map[string]string{"artist_id": err.Error()})
	}

	variants, err := s.pool.QueryArtistVariants(c.Request().Context(), artistID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Artist not found")
		}
		s.logger.Error().Err(err).Int64("artist_id", artistID).Msg("query artist variants failed")
		return internalError(c, "Failed to load artist variants")
	}
	return success(c, variants)
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseEntityID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("is required")
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return id, nil
}
