package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gr-butler/highlow/env"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
)

type trendResponse struct {
	Trend string  `json:"trend"`
	Delta float64 `json:"delta"`
}

type lightningResponse struct {
	Hours float64 `json:"hours"`
	Count int     `json:"count"`
}

func (w *weatherstation) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/highlow", w.highLowHandler).Methods(http.MethodGet)
	r.HandleFunc("/highlow/{sensor}", w.sensorHandler).Methods(http.MethodGet)
	r.HandleFunc("/trend", w.trendHandler).Methods(http.MethodGet)
	r.HandleFunc("/lightning", w.lightningHandler).Methods(http.MethodGet)
	r.HandleFunc("/storage", w.storageHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (w *weatherstation) highLowHandler(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, w.table.Views(r.Context()))
}

func (w *weatherstation) sensorHandler(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sensor"]
	if !w.table.Known(id) {
		http.Error(rw, "unknown sensor", http.StatusNotFound)
		return
	}
	v, err := w.table.View(r.Context(), id)
	if err != nil {
		logger.Errorf("Failed to read [%v] [%v]", id, err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, v)
}

// trendHandler classifies ?pressure=; without it the trend is steady.
func (w *weatherstation) trendHandler(rw http.ResponseWriter, r *http.Request) {
	var pressure *float64
	if raw := r.URL.Query().Get("pressure"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(rw, "bad pressure", http.StatusBadRequest)
			return
		}
		pressure = &p
	}
	t, delta, err := w.trend.Classify(r.Context(), pressure)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	Prom_pressureTrend.Set(delta)
	writeJSON(rw, trendResponse{Trend: string(t), Delta: delta})
}

func (w *weatherstation) lightningHandler(rw http.ResponseWriter, r *http.Request) {
	hours := env.StrikeWindow.Hours()
	if raw := r.URL.Query().Get("hours"); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || h <= 0 {
			http.Error(rw, "bad hours", http.StatusBadRequest)
			return
		}
		hours = h
	}
	n, err := w.strikes.CountSince(r.Context(), hours)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, lightningResponse{Hours: hours, Count: n})
}

func (w *weatherstation) storageHandler(rw http.ResponseWriter, r *http.Request) {
	s, err := w.gw.Snapshot(r.Context())
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, s)
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_, _ = rw.Write(js) // not much we can do if this fails
}
