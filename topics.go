/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/liarbox/games/liar"
	"github.com/Seednode/liarbox/topics"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var topicsPage = template.Must(template.New("topics").Parse(`<!DOCTYPE html><html lang="en"><head>
{{.Favicon}}
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="{{.Prefix}}/assets/liar/app.css">
<title>liarbox - topics</title></head>
<body><main>
<h1>Add a topic</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Added}}<p class="success">Topic saved.</p>{{end}}
<form method="post" action="{{.Prefix}}/topics">
<label>Question <input name="question" value="{{.Question}}" autocomplete="off"></label>
<label>Number range (e.g. 1~100) <input name="range" value="{{.Range}}" autocomplete="off"></label>
<button type="submit">Save topic</button>
</form>
<h2>Saved topics</h2>
{{if .Topics}}<ol>{{range .Topics}}<li>{{.Question}} / {{.NumberRange}}</li>{{end}}</ol>
{{else}}<p>No topics yet.</p>{{end}}
<p><img class="qr" src="{{.Prefix}}/topics/qr" alt="QR code for this page" width="320" height="320"></p>
<p><a href="{{.Prefix}}/liar">Start a game</a> · <a href="{{.Prefix}}/">Home</a></p>
</main></body></html>
`))

type topicsView struct {
	Favicon  template.HTML
	Prefix   string
	Topics   []liar.Topic
	Question string
	Range    string
	Error    string
	Added    bool
}

func renderTopics(cfg *Config, w http.ResponseWriter, status int, view topicsView) error {
	view.Favicon = template.HTML(getFavicon(cfg))
	view.Prefix = cfg.prefix

	var buf bytes.Buffer
	if err := topicsPage.Execute(&buf, view); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_, err := w.Write(buf.Bytes())
	return err
}

func serveTopicsPage(cfg *Config, store topics.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		list, err := store.List(ctx)
		if err != nil {
			errs <- err
			http.Error(w, "could not load topics", http.StatusInternalServerError)
			return
		}

		view := topicsView{
			Topics: list,
			Added:  r.URL.Query().Get("added") != "",
		}

		if err := renderTopics(cfg, w, http.StatusOK, view); err != nil {
			errs <- err
		}
	}
}

func addTopic(cfg *Config, store topics.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		question := r.PostFormValue("question")
		numberRange := r.PostFormValue("range")

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		err := store.Append(ctx, question, numberRange)
		switch {
		case errors.Is(err, liar.ErrEmptyField):
			list, listErr := store.List(ctx)
			if listErr != nil {
				errs <- listErr
			}

			view := topicsView{
				Topics:   list,
				Question: question,
				Range:    numberRange,
				Error:    "Please fill in both the question and the number range.",
			}
			if err := renderTopics(cfg, w, http.StatusBadRequest, view); err != nil {
				errs <- err
			}
			return
		case err != nil:
			errs <- err
			http.Error(w, "could not save topic", http.StatusInternalServerError)
			return
		}

		logf(cfg, "TOPIC: Added %q (%s) from %s in %s",
			strings.TrimSpace(question),
			strings.TrimSpace(numberRange),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)

		http.Redirect(w, r, cfg.prefix+"/topics?added=1", http.StatusSeeOther)
	}
}

func serveTopicsJSON(cfg *Config, store topics.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		list, err := store.List(ctx)
		if err != nil {
			errs <- err
			http.Error(w, "could not load topics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(list); err != nil {
			errs <- err
		}
	}
}

// topicsQR generates a PNG QR code for the topic page, so players can add topics
// from their own phones while the shared device stays on the table.
func topicsQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/topics"

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

// registerTopicPages sets up routes so that:
//   - $path          → topic list and add form (GET), add topic (POST)
//   - $path.json     → topic list as JSON
//   - $path/qr       → PNG QR code for the topic page
func registerTopicPages(cfg *Config, path string, store topics.Store, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+path, serveTopicsPage(cfg, store, errs))
	mux.POST(cfg.prefix+path, addTopic(cfg, store, errs))
	mux.GET(cfg.prefix+path+".json", serveTopicsJSON(cfg, store, errs))
	mux.GET(cfg.prefix+path+"/qr", topicsQR(cfg, errs))
}
