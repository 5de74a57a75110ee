package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/fonts"
	"ogcard/remote"
	"ogcard/render"
	"ogcard/response"
)

const maxDimension = 8192

// httpError carries status to report to the client.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &httpError{code: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

// statusOf maps error to response status. Client mistakes are reported as
// 400, everything else is internal.
func statusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.code
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, response.ErrUnsupportedInput) ||
		errors.Is(err, render.ErrUnsupportedFormat) ||
		errors.Is(err, fonts.ErrFontURLNotFound) {
		return http.StatusBadRequest
	}
	var se *remote.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("Unable to process request", zap.String("id", middleware.GetReqID(r.Context())), zap.Error(err))
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, err.Error(), code)
}

func (s *Server) imageFromQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	html := q.Get("html")
	if html == "" {
		s.fail(w, r, badRequest("html parameter is required"))
		return
	}
	s.image2response(w, r, html, q)
}

func (s *Server) imageFromBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	if err != nil {
		s.fail(w, r, fmt.Errorf("unable to read request body: %w", err))
		return
	}
	if len(body) == 0 {
		s.fail(w, r, badRequest("request body is empty"))
		return
	}
	s.image2response(w, r, string(body), r.URL.Query())
}

func (s *Server) image2response(w http.ResponseWriter, r *http.Request, html string, q url.Values) {
	opts, err := s.imageOptions(r, q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := response.CreateImage(r.Context(), s.engine, html, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp.ServeHTTP(w, r)
}

// imageOptions merges query parameters over configured defaults.
func (s *Server) imageOptions(r *http.Request, q url.Values) (response.Options, error) {
	opts := response.Options{
		Width:   s.image.Width,
		Height:  s.image.Height,
		Format:  s.image.Format,
		Emoji:   s.image.Emoji,
		Debug:   s.image.Debug,
		Headers: s.image.Headers,
		Log:     s.log,
	}

	var err error
	if v := q.Get("width"); v != "" {
		if opts.Width, err = dimension("width", v); err != nil {
			return opts, err
		}
	}
	if v := q.Get("height"); v != "" {
		if opts.Height, err = dimension("height", v); err != nil {
			return opts, err
		}
	}
	if v := q.Get("format"); v != "" {
		if opts.Format, err = config.ParseOutputFmt(strings.ToLower(v)); err != nil {
			return opts, &httpError{code: http.StatusBadRequest, err: fmt.Errorf("%w: %s", render.ErrUnsupportedFormat, v)}
		}
	}
	if v := q.Get("emoji"); v != "" {
		if opts.Emoji, err = config.ParseEmojiType(v); err != nil {
			return opts, badRequest("bad emoji parameter: %w", err)
		}
	}
	if v := q.Get("debug"); v != "" {
		if opts.Debug, err = strconv.ParseBool(v); err != nil {
			return opts, badRequest("bad debug parameter %q", v)
		}
	}

	for _, v := range q["font"] {
		fo, err := parseFont(v)
		if err != nil {
			return opts, err
		}
		f, err := s.engine.LoadGoogleFont(r.Context(), fo)
		if err != nil {
			return opts, fmt.Errorf("unable to load font %q: %w", v, err)
		}
		opts.Fonts = append(opts.Fonts, f)
	}
	return opts, nil
}

func dimension(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxDimension {
		return 0, badRequest("%s must be an integer between 1 and %d, got %q", name, maxDimension, v)
	}
	return n, nil
}

// parseFont reads font parameter in form family[:weight[:style]].
func parseFont(v string) (fonts.GoogleFontOptions, error) {
	parts := strings.Split(v, ":")
	opts := fonts.GoogleFontOptions{Family: strings.TrimSpace(parts[0])}
	if opts.Family == "" || len(parts) > 3 {
		return opts, badRequest("bad font parameter %q", v)
	}
	if len(parts) > 1 && parts[1] != "" {
		w, err := weight(parts[1])
		if err != nil {
			return opts, err
		}
		opts.Weight = w
	}
	if len(parts) > 2 && parts[2] != "" {
		st, err := config.ParseFontStyle(strings.ToLower(parts[2]))
		if err != nil {
			return opts, badRequest("bad font style: %w", err)
		}
		opts.Style = st
	}
	return opts, nil
}

func weight(v string) (fonts.Weight, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < int(fonts.WeightThin) || n > int(fonts.WeightBlack) {
		return 0, badRequest("font weight must be between %d and %d, got %q", fonts.WeightThin, fonts.WeightBlack, v)
	}
	return fonts.Weight(n), nil
}

// googleFont proxies font file from Google Fonts through the cache.
func (s *Server) googleFont(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := fonts.GoogleFontOptions{Family: q.Get("family"), Text: q.Get("text")}
	if opts.Family == "" {
		s.fail(w, r, badRequest("family parameter is required"))
		return
	}
	if v := q.Get("weight"); v != "" {
		wt, err := weight(v)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		opts.Weight = wt
	}
	if v := q.Get("style"); v != "" {
		st, err := config.ParseFontStyle(strings.ToLower(v))
		if err != nil {
			s.fail(w, r, badRequest("bad style parameter: %w", err))
			return
		}
		opts.Style = st
	}

	data, err := s.engine.GoogleFont(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "font/ttf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
