package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/lumed"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	loop    *lumed.Loop
	preview *lumed.PreviewServer
	maxLEDs int
}

func newAdminHandler(loop *lumed.Loop, preview *lumed.PreviewServer, maxLEDs int, verbose bool) *adminHandler {
	h := &adminHandler{
		Mux:     chi.NewRouter(),
		loop:    loop,
		preview: preview,
		maxLEDs: maxLEDs,
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	h.Use(httplog.RequestLogger(httplog.NewLogger("lumed-admin", httplog.Options{
		LogLevel: level,
		Concise:  true,
	})))

	h.Handle("/metrics", promhttp.Handler())
	h.Handle("/preview", preview)

	h.Group(func(r chi.Router) {
		r.Use(hrt.Use(hrt.Opts{
			Encoder: hrt.CombinedEncoder{
				Encoder: hrt.JSONEncoder,
				Decoder: hrt.URLDecoder,
			},
			ErrorWriter: hrt.TextErrorWriter,
		}))

		r.Get("/settings", hrt.Wrap(h.getSettings))
		r.Patch("/settings", hrt.Wrap(h.patchSettings))
		r.Post("/preview/kick", hrt.Wrap(h.kickPreview))
	})

	return h
}

type settingsResponse struct {
	LEDCount   int    `json:"ledCount"`
	RGB        [3]int `json:"rgb"`
	Effect     int    `json:"effect"`
	EffectName string `json:"effectName"`
}

func newSettingsResponse(s lumed.Settings) settingsResponse {
	return settingsResponse{
		LEDCount:   s.LEDCount,
		RGB:        [3]int{int(s.Color.R), int(s.Color.G), int(s.Color.B)},
		Effect:     int(s.Effect),
		EffectName: s.Effect.String(),
	}
}

func (h *adminHandler) getSettings(ctx context.Context, _ hrt.None) (settingsResponse, error) {
	return newSettingsResponse(h.loop.Settings()), nil
}

// patchSettingsRequest mirrors the serial protocol: every field is optional.
// RGB is given as "r,g,b".
type patchSettingsRequest struct {
	LEDCount string `query:"ledCount"`
	RGB      string `query:"rgb"`
	Effect   string `query:"effect"`
}

func (req patchSettingsRequest) update(maxLEDs int) (lumed.PartialUpdate, error) {
	var u lumed.PartialUpdate

	if req.LEDCount != "" {
		n, err := strconv.Atoi(req.LEDCount)
		if err != nil || n < 0 {
			return u, fmt.Errorf("invalid ledCount %q", req.LEDCount)
		}
		if n > maxLEDs {
			return u, fmt.Errorf("ledCount %d exceeds the %d LEDs on the strip", n, maxLEDs)
		}
		u.LEDCount = &n
	}

	if req.RGB != "" {
		parts := strings.Split(req.RGB, ",")
		if len(parts) != 3 {
			return u, fmt.Errorf("invalid rgb %q", req.RGB)
		}

		var rgb [3]uint8
		for i, part := range parts {
			c, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return u, fmt.Errorf("invalid rgb %q", req.RGB)
			}
			rgb[i] = uint8(c)
		}
		u.Color = &xcolor.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
	}

	if req.Effect != "" {
		n, err := strconv.Atoi(req.Effect)
		if err != nil {
			return u, fmt.Errorf("invalid effect %q", req.Effect)
		}
		id := lumed.EffectID(n)
		u.Effect = &id
	}

	return u, nil
}

func (h *adminHandler) patchSettings(ctx context.Context, req patchSettingsRequest) (settingsResponse, error) {
	u, err := req.update(h.maxLEDs)
	if err != nil {
		return settingsResponse{}, hrt.WrapHTTPError(http.StatusBadRequest, err)
	}

	settings, err := h.loop.Apply(ctx, u)
	if err != nil {
		return settingsResponse{}, fmt.Errorf("failed to apply settings: %w", err)
	}

	return newSettingsResponse(settings), nil
}

type kickRequest struct {
	Reason string `query:"reason"`
}

func (h *adminHandler) kickPreview(ctx context.Context, req kickRequest) (hrt.None, error) {
	h.preview.KickAllConnections(req.Reason)
	return hrt.Empty, nil
}
